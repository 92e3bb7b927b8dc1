package extraction

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/acordkit/acord-extract/internal/registry"
)

// Phone numbers must carry this many digits after stripping formatting.
const (
	phoneMinDigits = 7
	phoneMaxDigits = 15
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

	// \s is ASCII-only; PDF text layers also carry non-breaking spaces.
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Normalizer coerces winning raw values into their typed form and assembles
// the final document. Fields normalize independently: one field's failure
// never affects another, and never aborts the document.
type Normalizer struct {
	reg *registry.Registry
}

// NewNormalizer creates a normalizer over the given registry.
func NewNormalizer(reg *registry.Registry) *Normalizer {
	return &Normalizer{reg: reg}
}

// Document builds the extracted document from the winning candidates. Every
// canonical field in the registry appears in the output exactly once; fields
// without a winner, and winners whose values fail coercion, are reported as
// found=false with a null value rather than omitted.
func (n *Normalizer) Document(winners map[string]FieldCandidate) ExtractedDocument {
	doc := make(ExtractedDocument, n.reg.Len())

	for _, field := range n.reg.Fields() {
		winner, ok := winners[field.CanonicalName]
		if !ok {
			doc[field.CanonicalName] = FieldResult{Value: nil, Found: false, SourcePage: nil}
			continue
		}

		value, err := coerce(field.Type, winner.RawValueText)
		if err != nil {
			log.Printf("[normalize] field %s rejected: %v", field.CanonicalName, err)
			doc[field.CanonicalName] = FieldResult{Value: nil, Found: false, SourcePage: nil}
			continue
		}

		doc[field.CanonicalName] = FieldResult{
			Value:      value,
			Found:      true,
			SourcePage: sourcePage(winner.Page),
		}
	}

	return doc
}

// sourcePage maps a candidate page to the reported source page. Form-field
// candidates carry the sentinel page and report null.
func sourcePage(page int) *int {
	if page >= FormFieldPage {
		return nil
	}
	p := page
	return &p
}

// coerce converts a raw matched string into its typed value.
func coerce(valueType registry.ValueType, raw string) (any, error) {
	switch valueType {
	case registry.ValueTypeCurrency:
		return coerceCurrency(raw)
	case registry.ValueTypePhone:
		return coercePhone(raw)
	case registry.ValueTypeEmail:
		return coerceEmail(raw)
	case registry.ValueTypeInteger:
		return coerceInteger(raw)
	case registry.ValueTypeText, registry.ValueTypeAddress:
		return collapseWhitespace(raw), nil
	default:
		return nil, fmt.Errorf("unknown value type %q", valueType)
	}
}

// coerceCurrency strips currency symbols and thousands separators and parses
// the remainder as a number.
func coerceCurrency(raw string) (any, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return nil, fmt.Errorf("no numeric content in %q", raw)
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as currency", raw)
	}
	return amount, nil
}

// coercePhone strips formatting and reports a canonical digit string:
// numbers long enough to carry a country code are prefixed with "+".
func coercePhone(raw string) (any, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	if len(s) < phoneMinDigits || len(s) > phoneMaxDigits {
		return nil, fmt.Errorf("phone %q has %d digits, want %d-%d", raw, len(s), phoneMinDigits, phoneMaxDigits)
	}

	if len(s) >= 11 {
		return "+" + s, nil
	}
	return s, nil
}

func coerceEmail(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if !emailPattern.MatchString(trimmed) {
		return nil, fmt.Errorf("%q is not a valid email address", raw)
	}
	return trimmed, nil
}

func coerceInteger(raw string) (any, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as integer", raw)
	}
	return value, nil
}

func collapseWhitespace(raw string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}
