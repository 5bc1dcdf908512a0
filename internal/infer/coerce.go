package infer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Convert coerces a raw string to a typed value per the inferred type.
// Empty or whitespace-only input coerces to null for every type, as does
// any value that fails to parse.
func Convert(raw string, t Type) model.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Null()
	}

	switch t {
	case TypeBoolean:
		l := strings.ToLower(s)
		if trueLiterals[l] {
			return model.Bool(true)
		}
		if falseLiterals[l] {
			return model.Bool(false)
		}
		return model.Null()
	case TypeCurrency, TypeNumber:
		if d, ok := parseNumeric(s); ok {
			return model.Number(d)
		}
		return model.Null()
	case TypeDate:
		if t, ok := parseDate(s); ok {
			return model.Date(t)
		}
		return model.Null()
	default:
		return model.Text(s)
	}
}

// parseNumeric parses a number after stripping currency symbols, thousands
// separators, and spaces. Parenthesized values are accounting negatives.
func parseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	if negative {
		s = "-" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
