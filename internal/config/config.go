// Package config loads institution profiles: per-bank parse settings that
// callers hand to the engine. Profiles live in YAML next to the data they
// describe.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bankfeed-dev/bankfeed/internal/infer"
	"github.com/bankfeed-dev/bankfeed/internal/transform"
	"github.com/bankfeed-dev/bankfeed/internal/validate"
)

// Profile describes how to ingest exports from one institution account.
type Profile struct {
	Institution string `yaml:"institution"`
	Account     string `yaml:"account"`
	// Delimiter overrides CSV delimiter detection ("," ";" "tab" "space").
	Delimiter string `yaml:"delimiter,omitempty"`
	// KnownRecords is the path of the persisted known-records CSV used by
	// the duplicate matcher.
	KnownRecords string `yaml:"known_records,omitempty"`
	// Fields is the expected-field schema, keyed by sanitized field name.
	Fields map[string]FieldRule `yaml:"fields,omitempty"`
	// Arrays marks source fields that hold parallel arrays to explode.
	Arrays map[string]ArrayRule `yaml:"arrays,omitempty"`
	// Columns maps engine output fields to transaction attributes for
	// duplicate matching.
	Columns ColumnMap `yaml:"columns"`
}

// FieldRule is one expected-field constraint.
type FieldRule struct {
	Required bool   `yaml:"required"`
	Type     string `yaml:"type,omitempty"`
}

// ArrayRule marks an array field for explosion.
type ArrayRule struct {
	Explode bool `yaml:"explode"`
}

// ColumnMap names the sanitized fields that carry transaction attributes.
type ColumnMap struct {
	Date      string `yaml:"date"`
	Amount    string `yaml:"amount"`
	Statement string `yaml:"statement"`
	Merchant  string `yaml:"merchant,omitempty"`
}

// Load reads a profile YAML file from disk.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return &p, nil
}

// Save writes a profile to a YAML file.
func Save(path string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

// Default returns a minimal profile for a new institution account.
func Default(institution, account string) *Profile {
	return &Profile{
		Institution: institution,
		Account:     account,
		Fields: map[string]FieldRule{
			"Date":   {Required: true, Type: "date"},
			"Amount": {Required: true, Type: "number"},
		},
		Columns: ColumnMap{
			Date:      "Date",
			Amount:    "Amount",
			Statement: "Description",
		},
	}
}

// Schema converts the profile's field rules to a validation schema.
func (p *Profile) Schema() validate.Schema {
	if len(p.Fields) == 0 {
		return nil
	}
	s := make(validate.Schema, len(p.Fields))
	for name, rule := range p.Fields {
		s[name] = validate.Rule{Required: rule.Required, Type: infer.TypeFromString(rule.Type)}
	}
	return s
}

// Mapping converts the profile's array rules to a transform mapping.
func (p *Profile) Mapping() map[string]transform.FieldMapping {
	if len(p.Arrays) == 0 {
		return nil
	}
	m := make(map[string]transform.FieldMapping, len(p.Arrays))
	for name, rule := range p.Arrays {
		m[name] = transform.FieldMapping{Type: "array", Explode: rule.Explode}
	}
	return m
}

// DelimiterRune maps the YAML delimiter spelling to the engine option.
func (p *Profile) DelimiterRune() rune {
	switch p.Delimiter {
	case "":
		return 0
	case "tab", "\t":
		return '\t'
	case "space":
		return ' '
	default:
		return rune(p.Delimiter[0])
	}
}
