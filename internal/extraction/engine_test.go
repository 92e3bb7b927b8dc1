package extraction

import (
	"testing"

	"github.com/acordkit/acord-extract/internal/layout"
	"github.com/acordkit/acord-extract/internal/registry"
)

func testLine(id, page int, y float64, label, value string) layout.Line {
	return layout.Line{
		ID:    id,
		Page:  page,
		Y:     y,
		Text:  label + ": " + value,
		Label: label,
		Value: value,
	}
}

func TestCandidatesLabelMatching(t *testing.T) {
	engine := NewEngine(registry.Default(), DefaultConfidenceFloor)

	tests := []struct {
		name      string
		label     string
		value     string
		wantField string
		wantNone  bool
	}{
		{
			name:      "exact synonym",
			label:     "Business Name",
			value:     "Acme Plumbing LLC",
			wantField: "business_name",
		},
		{
			name:      "alternate synonym",
			label:     "Name of Business",
			value:     "Acme Plumbing LLC",
			wantField: "business_name",
		},
		{
			name:      "insured synonym",
			label:     "Insured Name",
			value:     "Acme Plumbing LLC",
			wantField: "business_name",
		},
		{
			name:      "punctuation and case ignored",
			label:     "E-MAIL ADDRESS:",
			value:     "ops@acme.example",
			wantField: "email",
		},
		{
			name:      "longer synonym beats shorter containment",
			label:     "Mailing Address",
			value:     "123 Main St",
			wantField: "address",
		},
		{
			name:      "label containing a synonym on word boundaries",
			label:     "Insured Name and Mailing Address of Applicant",
			value:     "Acme Plumbing LLC",
			wantField: "address",
		},
		{
			name:      "truncated multi-word label contained in a synonym",
			label:     "Gross Annual",
			value:     "$1,250,000",
			wantField: "annual_revenue",
		},
		{
			name:     "stray single word does not claim longer synonyms",
			label:    "Name",
			value:    "Acme Plumbing LLC",
			wantNone: true,
		},
		{
			name:     "unknown label",
			label:    "Policy Number",
			value:    "CPP-1234",
			wantNone: true,
		},
		{
			name:     "empty value skipped",
			label:    "Business Name",
			value:    "   ",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []layout.Line{testLine(0, 1, 700, tt.label, tt.value)}
			candidates := engine.Candidates(lines)

			if tt.wantNone {
				if len(candidates) != 0 {
					t.Errorf("expected no candidates, got %+v", candidates)
				}
				return
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].CanonicalField != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, candidates[0].CanonicalField)
			}
		})
	}
}

func TestCandidatesConfidence(t *testing.T) {
	engine := NewEngine(registry.Default(), DefaultConfidenceFloor)

	tests := []struct {
		name           string
		label          string
		value          string
		wantConfidence float64
	}{
		{
			name:           "label and value shape match",
			label:          "Email",
			value:          "ops@acme.example",
			wantConfidence: ConfidenceFull,
		},
		{
			name:           "label matches but value shape does not",
			label:          "Email",
			value:          "see attached sheet",
			wantConfidence: ConfidenceLabelOnly,
		},
		{
			name:           "currency shape match",
			label:          "Annual Revenue",
			value:          "$1,250,000",
			wantConfidence: ConfidenceFull,
		},
		{
			name:           "partial pattern match is not a full match",
			label:          "Annual Revenue",
			value:          "$1,250,000 approx",
			wantConfidence: ConfidenceLabelOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := engine.Candidates([]layout.Line{testLine(0, 1, 700, tt.label, tt.value)})
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].Confidence != tt.wantConfidence {
				t.Errorf("expected confidence %v, got %v", tt.wantConfidence, candidates[0].Confidence)
			}
		})
	}
}

func TestSelectWinnersConfidenceAndFloor(t *testing.T) {
	engine := NewEngine(registry.Default(), 0.6)

	candidates := []FieldCandidate{
		{CanonicalField: "email", RawValueText: "see attached", Page: 1, Y: 700, LineID: 0, Confidence: ConfidenceLabelOnly},
		{CanonicalField: "email", RawValueText: "ops@acme.example", Page: 2, Y: 100, LineID: 5, Confidence: ConfidenceFull},
	}

	winners := engine.SelectWinners(candidates)
	winner, ok := winners["email"]
	if !ok {
		t.Fatalf("expected a winner for email")
	}
	if winner.RawValueText != "ops@acme.example" {
		t.Errorf("expected the full-confidence candidate to win, got %+v", winner)
	}

	// With only a below-floor candidate the field has no winner at all.
	winners = engine.SelectWinners(candidates[:1])
	if _, ok := winners["email"]; ok {
		t.Errorf("below-floor candidate must not be selected")
	}
}

func TestSelectWinnersPositionTieBreaks(t *testing.T) {
	engine := NewEngine(registry.Default(), DefaultConfidenceFloor)

	tests := []struct {
		name       string
		candidates []FieldCandidate
		wantLineID int
	}{
		{
			name: "earlier page wins",
			candidates: []FieldCandidate{
				{CanonicalField: "phone", RawValueText: "555-0200", Page: 2, Y: 700, LineID: 9, Confidence: ConfidenceFull},
				{CanonicalField: "phone", RawValueText: "555-0100", Page: 1, Y: 100, LineID: 3, Confidence: ConfidenceFull},
			},
			wantLineID: 3,
		},
		{
			name: "higher line wins on the same page",
			candidates: []FieldCandidate{
				{CanonicalField: "phone", RawValueText: "555-0200", Page: 1, Y: 300, LineID: 9, Confidence: ConfidenceFull},
				{CanonicalField: "phone", RawValueText: "555-0100", Page: 1, Y: 700, LineID: 3, Confidence: ConfidenceFull},
			},
			wantLineID: 3,
		},
		{
			name: "form field loses to text layer",
			candidates: []FieldCandidate{
				{CanonicalField: "phone", RawValueText: "555-0200", Page: FormFieldPage, Y: 0, LineID: 9, Confidence: ConfidenceFull},
				{CanonicalField: "phone", RawValueText: "555-0100", Page: 2, Y: 100, LineID: 3, Confidence: ConfidenceFull},
			},
			wantLineID: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winners := engine.SelectWinners(tt.candidates)
			winner, ok := winners[tt.candidates[0].CanonicalField]
			if !ok {
				t.Fatalf("expected a winner")
			}
			if winner.LineID != tt.wantLineID {
				t.Errorf("expected line %d to win, got %d", tt.wantLineID, winner.LineID)
			}
		})
	}
}

func TestSelectWinnersConsumesLines(t *testing.T) {
	engine := NewEngine(registry.Default(), DefaultConfidenceFloor)

	// The same line is the best candidate for two fields. business_name comes
	// first in registry order, so it consumes the line; contact_name falls back
	// to its next candidate.
	candidates := []FieldCandidate{
		{CanonicalField: "business_name", RawValueText: "Acme Plumbing LLC", Page: 1, Y: 700, LineID: 0, Confidence: ConfidenceFull},
		{CanonicalField: "contact_name", RawValueText: "Acme Plumbing LLC", Page: 1, Y: 700, LineID: 0, Confidence: ConfidenceFull},
		{CanonicalField: "contact_name", RawValueText: "Jane Smith", Page: 1, Y: 650, LineID: 1, Confidence: ConfidenceFull},
	}

	winners := engine.SelectWinners(candidates)

	if winners["business_name"].LineID != 0 {
		t.Errorf("expected business_name to take line 0, got %+v", winners["business_name"])
	}
	if winners["contact_name"].LineID != 1 {
		t.Errorf("expected contact_name to fall back to line 1, got %+v", winners["contact_name"])
	}
	if winners["contact_name"].RawValueText != "Jane Smith" {
		t.Errorf("expected contact_name value 'Jane Smith', got %q", winners["contact_name"].RawValueText)
	}
}

func TestNewEngineClampsFloor(t *testing.T) {
	for _, floor := range []float64{-0.5, 1, 2} {
		engine := NewEngine(registry.Default(), floor)
		if engine.confidenceFloor != DefaultConfidenceFloor {
			t.Errorf("floor %v: expected default %v, got %v", floor, DefaultConfidenceFloor, engine.confidenceFloor)
		}
	}
}
