package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acordkit/acord-extract/internal/registry"
)

func winner(field, raw string, page int) FieldCandidate {
	return FieldCandidate{
		CanonicalField: field,
		RawValueText:   raw,
		Page:           page,
		Confidence:     ConfidenceFull,
	}
}

func TestDocumentKeySetIsClosed(t *testing.T) {
	reg := registry.Default()
	n := NewNormalizer(reg)

	doc := n.Document(nil)

	require.Len(t, doc, reg.Len())
	for _, name := range reg.CanonicalNames() {
		result, ok := doc[name]
		require.True(t, ok, "field %s missing from document", name)
		assert.False(t, result.Found)
		assert.Nil(t, result.Value)
		assert.Nil(t, result.SourcePage)
	}
}

func TestDocumentCoercion(t *testing.T) {
	n := NewNormalizer(registry.Default())

	tests := []struct {
		name      string
		field     string
		raw       string
		wantValue any
		wantFound bool
	}{
		{
			name:      "text collapses whitespace",
			field:     "business_name",
			raw:       "  Acme   Plumbing \t LLC ",
			wantValue: "Acme Plumbing LLC",
			wantFound: true,
		},
		{
			name:      "address collapses whitespace",
			field:     "address",
			raw:       "123 Main St\u00a0 Suite 4",
			wantValue: "123 Main St Suite 4",
			wantFound: true,
		},
		{
			name:      "currency strips symbols and separators",
			field:     "annual_revenue",
			raw:       "$1,250,000",
			wantValue: 1250000.0,
			wantFound: true,
		},
		{
			name:      "currency with cents",
			field:     "annual_revenue",
			raw:       "$99,500.50",
			wantValue: 99500.50,
			wantFound: true,
		},
		{
			name:      "non-numeric currency fails locally",
			field:     "annual_revenue",
			raw:       "banana",
			wantFound: false,
		},
		{
			name:      "domestic phone keeps bare digits",
			field:     "phone",
			raw:       "(555) 123-4567",
			wantValue: "5551234567",
			wantFound: true,
		},
		{
			name:      "phone with country code gains plus prefix",
			field:     "phone",
			raw:       "+1 (555) 123-4567",
			wantValue: "+15551234567",
			wantFound: true,
		},
		{
			name:      "too few phone digits fails locally",
			field:     "phone",
			raw:       "call me",
			wantFound: false,
		},
		{
			name:      "valid email passes through trimmed",
			field:     "email",
			raw:       " ops@acme.example ",
			wantValue: "ops@acme.example",
			wantFound: true,
		},
		{
			name:      "malformed email fails locally",
			field:     "email",
			raw:       "ops at acme dot example",
			wantFound: false,
		},
		{
			name:      "integer with thousands separator",
			field:     "employee_count",
			raw:       "1,200",
			wantValue: int64(1200),
			wantFound: true,
		},
		{
			name:      "plain integer",
			field:     "employee_count",
			raw:       "42",
			wantValue: int64(42),
			wantFound: true,
		},
		{
			name:      "fractional employee count fails locally",
			field:     "employee_count",
			raw:       "12.5",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winners := map[string]FieldCandidate{
				tt.field: winner(tt.field, tt.raw, 1),
			}
			doc := n.Document(winners)

			result := doc[tt.field]
			assert.Equal(t, tt.wantFound, result.Found)
			if tt.wantFound {
				assert.Equal(t, tt.wantValue, result.Value)
				require.NotNil(t, result.SourcePage)
				assert.Equal(t, 1, *result.SourcePage)
			} else {
				assert.Nil(t, result.Value)
				assert.Nil(t, result.SourcePage)
			}
		})
	}
}

func TestDocumentFailureIsolation(t *testing.T) {
	n := NewNormalizer(registry.Default())

	winners := map[string]FieldCandidate{
		"business_name":  winner("business_name", "Acme Plumbing LLC", 1),
		"annual_revenue": winner("annual_revenue", "banana", 1),
		"employee_count": winner("employee_count", "12", 2),
	}

	doc := n.Document(winners)

	assert.True(t, doc["business_name"].Found)
	assert.Equal(t, "Acme Plumbing LLC", doc["business_name"].Value)

	assert.False(t, doc["annual_revenue"].Found, "one failed field must not abort the document")
	assert.Nil(t, doc["annual_revenue"].Value)

	assert.True(t, doc["employee_count"].Found)
	assert.Equal(t, int64(12), doc["employee_count"].Value)
}

func TestDocumentFormFieldSourcePage(t *testing.T) {
	n := NewNormalizer(registry.Default())

	winners := map[string]FieldCandidate{
		"email": winner("email", "ops@acme.example", FormFieldPage),
	}

	doc := n.Document(winners)

	result := doc["email"]
	assert.True(t, result.Found)
	assert.Equal(t, "ops@acme.example", result.Value)
	assert.Nil(t, result.SourcePage, "form field values carry no source page")
}
