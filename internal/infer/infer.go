// Package infer classifies column types from sampled values and coerces
// raw strings into typed values. Classification handles the messy reality
// of bank exports: currency symbols, thousand separators, accounting
// negatives, several boolean spellings, and a zoo of date formats.
package infer

import (
	"strings"
	"time"
)

// Type is an inferred column type.
type Type string

const (
	TypeBoolean  Type = "boolean"
	TypeCurrency Type = "currency"
	TypeNumber   Type = "number"
	TypeDate     Type = "date"
	TypeText     Type = "text"
)

// TypeFromString parses a type name, defaulting to text.
func TypeFromString(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boolean", "bool":
		return TypeBoolean
	case "currency":
		return TypeCurrency
	case "number", "numeric":
		return TypeNumber
	case "date", "datetime":
		return TypeDate
	default:
		return TypeText
	}
}

// Inference is the classification of one column.
type Inference struct {
	Type Type
	// Confidence is the fraction of non-empty sampled values matching the
	// chosen type. Diagnostic only; it never rejects rows by itself.
	Confidence float64
}

// precedence is the classification order. Currency outranks number so that
// "$10.00" columns do not degrade to plain numbers.
var precedence = []Type{TypeBoolean, TypeCurrency, TypeNumber, TypeDate}

// Infer classifies a column from sampled values. The first type in
// precedence order matched by a majority of non-empty samples wins;
// currency additionally requires at least one value carrying a currency
// symbol. Empty samples classify as text.
func Infer(samples []string) Inference {
	var nonEmpty []string
	for _, s := range samples {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return Inference{Type: TypeText, Confidence: 0}
	}

	for _, t := range precedence {
		matched := 0
		sawSymbol := false
		for _, s := range nonEmpty {
			if matchesType(s, t) {
				matched++
				if t == TypeCurrency && hasCurrencySymbol(s) {
					sawSymbol = true
				}
			}
		}
		if t == TypeCurrency && !sawSymbol {
			continue
		}
		if matched*2 > len(nonEmpty) {
			return Inference{Type: t, Confidence: float64(matched) / float64(len(nonEmpty))}
		}
	}
	return Inference{Type: TypeText, Confidence: 1}
}

func matchesType(s string, t Type) bool {
	s = strings.TrimSpace(s)
	switch t {
	case TypeBoolean:
		return isBooleanLiteral(s)
	case TypeCurrency:
		_, ok := parseNumeric(s)
		return ok
	case TypeNumber:
		if hasCurrencySymbol(s) {
			return false
		}
		_, ok := parseNumeric(s)
		return ok
	case TypeDate:
		_, ok := parseDate(s)
		return ok
	default:
		return true
	}
}

var trueLiterals = map[string]bool{"true": true, "yes": true, "y": true, "1": true}
var falseLiterals = map[string]bool{"false": true, "no": true, "n": true, "0": true}

func isBooleanLiteral(s string) bool {
	l := strings.ToLower(s)
	return trueLiterals[l] || falseLiterals[l]
}

var currencySymbols = []string{"$", "€", "£", "¥"}

func hasCurrencySymbol(s string) bool {
	for _, sym := range currencySymbols {
		if strings.Contains(s, sym) {
			return true
		}
	}
	return false
}

// dateLayouts in match order. Four-digit years first; two-digit-year forms
// are ambiguous and tried last.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/06",
	"01/02/06",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
