package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindDate
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a typed cell value. Source rows are untyped string maps; coercion
// produces exactly one of these variants per cell.
type Value struct {
	kind Kind
	b    bool
	num  decimal.Decimal
	text string
	date time.Time
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value.
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date returns a date Value.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. Valid only for KindBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload. Valid only for KindNumber.
func (v Value) AsNumber() decimal.Decimal { return v.num }

// AsText returns the text payload. Valid only for KindText.
func (v Value) AsText() string { return v.text }

// AsDate returns the date payload. Valid only for KindDate.
func (v Value) AsDate() time.Time { return v.date }

// dateOnly reports whether the date carries no time-of-day component.
func (v Value) dateOnly() bool {
	h, m, s := v.date.Clock()
	return h == 0 && m == 0 && s == 0 && v.date.Nanosecond() == 0
}

// String renders the value for display. Dates normalize to ISO-8601.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.num.String()
	case KindText:
		return v.text
	case KindDate:
		if v.dateOnly() {
			return v.date.Format("2006-01-02")
		}
		return v.date.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num.Equal(o.num)
	case KindText:
		return v.text == o.text
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return true
	}
}

// MarshalJSON encodes null as JSON null, numbers as JSON numbers, and dates
// as ISO-8601 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindText:
		return json.Marshal(v.text)
	case KindDate:
		return json.Marshal(v.String())
	default:
		return []byte("null"), nil
	}
}
