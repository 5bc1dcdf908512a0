package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Kinds(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindNumber, Number(decimal.NewFromInt(3)).Kind())
	assert.Equal(t, KindText, Text("x").Kind())
	assert.Equal(t, KindDate, Date(time.Now()).Kind())

	assert.True(t, Null().IsNull())
	assert.False(t, Text("").IsNull())
}

func TestValue_String_DateISO(t *testing.T) {
	d := Date(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-03", d.String())

	dt := Date(time.Date(2025, 1, 3, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-03T14:30:00Z", dt.String())
}

func TestValue_MarshalJSON(t *testing.T) {
	row := ParsedRow{
		"a": Null(),
		"b": Bool(true),
		"c": Number(decimal.RequireFromString("12.50")),
		"d": Text(`say "hi"`),
		"e": Date(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["a"])
	assert.Equal(t, true, decoded["b"])
	assert.Equal(t, 12.5, decoded["c"])
	assert.Equal(t, `say "hi"`, decoded["d"])
	assert.Equal(t, "2025-01-03", decoded["e"])
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Number(decimal.RequireFromString("1.50")).Equal(Number(decimal.RequireFromString("1.5"))))
	assert.False(t, Number(decimal.NewFromInt(1)).Equal(Text("1")))
	assert.True(t, Null().Equal(Null()))
}

func TestSanitizeFieldName(t *testing.T) {
	assert.Equal(t, "Posting_Date", SanitizeFieldName("Posting Date"))
	assert.Equal(t, "user_name", SanitizeFieldName("user.name"))
	assert.Equal(t, "Amount_USD", SanitizeFieldName("Amount (USD)"))
	assert.Equal(t, "_1st_Column", SanitizeFieldName("1st Column"))
	assert.Equal(t, "_", SanitizeFieldName("€€€"))
}

func TestTransaction_SameDay(t *testing.T) {
	a := Transaction{Date: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)}
	b := Transaction{Date: time.Date(2025, 1, 3, 23, 59, 0, 0, time.UTC)}
	c := Transaction{Date: time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)}
	assert.True(t, a.SameDay(b))
	assert.False(t, a.SameDay(c))
}
