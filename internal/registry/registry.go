// Package registry holds the canonical field definitions the extraction
// pipeline matches against. The registry is loaded once at process start and
// treated as read-only afterwards, so it is safe to share across concurrent
// extraction requests without locking.
package registry

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueType describes how a matched raw value is coerced by the normalizer.
type ValueType string

const (
	ValueTypeText     ValueType = "text"
	ValueTypeCurrency ValueType = "currency"
	ValueTypePhone    ValueType = "phone"
	ValueTypeEmail    ValueType = "email"
	ValueTypeInteger  ValueType = "integer"
	ValueTypeAddress  ValueType = "address"
)

// FieldDefinition is the on-disk form of a registry entry.
type FieldDefinition struct {
	CanonicalName string    `yaml:"canonical_name"`
	LabelSynonyms []string  `yaml:"label_synonyms"`
	ValuePattern  string    `yaml:"value_pattern"`
	ValueType     ValueType `yaml:"value_type"`
}

// Field is a compiled registry entry. Synonyms are stored in normalized form
// (see NormalizeLabel) and the value pattern is compiled once.
type Field struct {
	CanonicalName string
	Synonyms      []string
	Pattern       *regexp.Regexp
	Type          ValueType
}

// Registry is an immutable, ordered set of compiled field definitions.
// Definition order is significant: it is the deterministic tie-break order
// used during winner selection.
type Registry struct {
	fields []Field
	index  map[string]int
}

// Fields returns the compiled definitions in declaration order.
func (r *Registry) Fields() []Field {
	return r.fields
}

// Len returns the number of canonical fields.
func (r *Registry) Len() int {
	return len(r.fields)
}

// Lookup returns the compiled field for a canonical name.
func (r *Registry) Lookup(canonicalName string) (Field, bool) {
	i, ok := r.index[canonicalName]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// CanonicalNames returns every canonical field name in declaration order.
func (r *Registry) CanonicalNames() []string {
	names := make([]string, len(r.fields))
	for i := range r.fields {
		names[i] = r.fields[i].CanonicalName
	}
	return names
}

// Compile validates and compiles a set of field definitions into a Registry.
func Compile(defs []FieldDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("registry must contain at least one field definition")
	}

	reg := &Registry{
		fields: make([]Field, 0, len(defs)),
		index:  make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		if def.CanonicalName == "" {
			return nil, fmt.Errorf("field definition %d: canonical_name cannot be empty", i)
		}
		if _, dup := reg.index[def.CanonicalName]; dup {
			return nil, fmt.Errorf("duplicate canonical field %q", def.CanonicalName)
		}
		if len(def.LabelSynonyms) == 0 {
			return nil, fmt.Errorf("field %q: at least one label synonym is required", def.CanonicalName)
		}
		if !validValueType(def.ValueType) {
			return nil, fmt.Errorf("field %q: unknown value type %q", def.CanonicalName, def.ValueType)
		}

		pattern := def.ValuePattern
		if pattern == "" {
			pattern = `\S.*`
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid value pattern: %w", def.CanonicalName, err)
		}

		synonyms := make([]string, 0, len(def.LabelSynonyms))
		for _, syn := range def.LabelSynonyms {
			normalized := NormalizeLabel(syn)
			if normalized == "" {
				return nil, fmt.Errorf("field %q: synonym %q normalizes to empty string", def.CanonicalName, syn)
			}
			synonyms = append(synonyms, normalized)
		}

		reg.index[def.CanonicalName] = len(reg.fields)
		reg.fields = append(reg.fields, Field{
			CanonicalName: def.CanonicalName,
			Synonyms:      synonyms,
			Pattern:       re,
			Type:          def.ValueType,
		})
	}

	return reg, nil
}

// Load reads field definitions from a YAML file and compiles them.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read registry file: %w", err)
	}

	var file struct {
		Fields []FieldDefinition `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("cannot parse registry file %s: %w", path, err)
	}

	reg, err := Compile(file.Fields)
	if err != nil {
		return nil, fmt.Errorf("invalid registry file %s: %w", path, err)
	}
	return reg, nil
}

// Default returns the built-in registry covering the standard commercial
// application field set. Deployments targeting other form layouts override it
// with a registry file.
func Default() *Registry {
	reg, err := Compile(defaultDefinitions())
	if err != nil {
		// The built-in table is fixed at compile time; failure here is a bug.
		panic(fmt.Sprintf("built-in registry is invalid: %v", err))
	}
	return reg
}

func defaultDefinitions() []FieldDefinition {
	return []FieldDefinition{
		{
			CanonicalName: "business_name",
			LabelSynonyms: []string{
				"Business Name", "Name of Business", "Insured Name",
				"Named Insured", "Applicant Name", "Company Name",
			},
			ValuePattern: `\S.*`,
			ValueType:    ValueTypeText,
		},
		{
			CanonicalName: "contact_name",
			LabelSynonyms: []string{
				"Contact", "Contact Name", "Contact Person", "Primary Contact",
			},
			ValuePattern: `\S.*`,
			ValueType:    ValueTypeText,
		},
		{
			CanonicalName: "email",
			LabelSynonyms: []string{
				"Email", "Email Address", "E-mail", "E-mail Address",
			},
			ValuePattern: `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
			ValueType:    ValueTypeEmail,
		},
		{
			CanonicalName: "phone",
			LabelSynonyms: []string{
				"Phone", "Phone Number", "Telephone", "Business Phone", "Phone No",
			},
			ValuePattern: `[\d\s()+.\-]{7,}`,
			ValueType:    ValueTypePhone,
		},
		{
			CanonicalName: "address",
			LabelSynonyms: []string{
				"Address", "Mailing Address", "Street Address", "Business Address",
			},
			ValuePattern: `\S.*`,
			ValueType:    ValueTypeAddress,
		},
		{
			CanonicalName: "business_type",
			LabelSynonyms: []string{
				"Business Type", "Type of Business", "Nature of Business",
				"Description of Operations",
			},
			ValuePattern: `\S.*`,
			ValueType:    ValueTypeText,
		},
		{
			CanonicalName: "annual_revenue",
			LabelSynonyms: []string{
				"Annual Revenue", "Gross Annual Revenue", "Annual Sales",
				"Gross Receipts", "Annual Gross Sales",
			},
			ValuePattern: `\$?\s*[\d,]+(\.\d{1,2})?`,
			ValueType:    ValueTypeCurrency,
		},
		{
			CanonicalName: "employee_count",
			LabelSynonyms: []string{
				"Number of Employees", "Employee Count", "Employees",
				"# of Employees", "Full Time Employees", "Total Employees",
			},
			ValuePattern: `[\d,]+`,
			ValueType:    ValueTypeInteger,
		},
	}
}

func validValueType(t ValueType) bool {
	switch t {
	case ValueTypeText, ValueTypeCurrency, ValueTypePhone, ValueTypeEmail, ValueTypeInteger, ValueTypeAddress:
		return true
	}
	return false
}

// NormalizeLabel lowercases a label, strips punctuation, and collapses
// whitespace, so that "E-Mail Address:" and "email address" compare equal.
// Synonyms are normalized with the same function at registry compile time.
func NormalizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
