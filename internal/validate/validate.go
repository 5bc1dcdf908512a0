// Package validate checks coerced rows against an optional expected-field
// schema. Validation is additive: failing rows are diverted to the reject
// sink and counted, never silently dropped from the file-level totals.
package validate

import (
	"fmt"

	"github.com/bankfeed-dev/bankfeed/internal/infer"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Rule constrains one expected field.
type Rule struct {
	Required bool
	Type     infer.Type // zero value means "any type"
}

// Schema maps sanitized field names to rules.
type Schema map[string]Rule

// RowError describes a single rule violation on one row.
type RowError struct {
	Field   string
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks one coerced row. A nil or empty schema accepts
// everything. A required field that is missing or null fails; a present
// field whose runtime kind does not match the declared type fails.
func (s Schema) Validate(row model.ParsedRow) []RowError {
	var errs []RowError
	for field, rule := range s {
		v, ok := row[field]
		if !ok || v.IsNull() {
			if rule.Required {
				errs = append(errs, RowError{Field: field, Message: "required field is missing or null"})
			}
			continue
		}
		if rule.Type == "" || rule.Type == infer.TypeText {
			continue
		}
		if want := kindFor(rule.Type); v.Kind() != want {
			errs = append(errs, RowError{
				Field:   field,
				Message: fmt.Sprintf("expected %s, got %s", rule.Type, v.Kind()),
			})
		}
	}
	return errs
}

func kindFor(t infer.Type) model.Kind {
	switch t {
	case infer.TypeBoolean:
		return model.KindBool
	case infer.TypeCurrency, infer.TypeNumber:
		return model.KindNumber
	case infer.TypeDate:
		return model.KindDate
	default:
		return model.KindText
	}
}
