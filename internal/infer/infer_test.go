package infer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func TestInfer_CurrencyNeedsSymbol(t *testing.T) {
	inf := Infer([]string{"$10.00", "$20.00", "$1,234.56"})
	assert.Equal(t, TypeCurrency, inf.Type)
	assert.Equal(t, 1.0, inf.Confidence)

	inf = Infer([]string{"10.00", "20.00", "1234.56"})
	assert.Equal(t, TypeNumber, inf.Type)
}

func TestInfer_Boolean(t *testing.T) {
	inf := Infer([]string{"yes", "no", "Yes", "TRUE"})
	assert.Equal(t, TypeBoolean, inf.Type)
}

func TestInfer_Dates(t *testing.T) {
	inf := Infer([]string{"2025-01-03", "01/04/2025", "1/5/2025"})
	assert.Equal(t, TypeDate, inf.Type)
}

func TestInfer_MajorityWinsWithLowerConfidence(t *testing.T) {
	inf := Infer([]string{"1.00", "2.00", "n/a"})
	assert.Equal(t, TypeNumber, inf.Type)
	assert.InDelta(t, 2.0/3.0, inf.Confidence, 1e-9)
}

func TestInfer_MixedFallsBackToText(t *testing.T) {
	inf := Infer([]string{"GITHUB", "DELI", "3.50"})
	assert.Equal(t, TypeText, inf.Type)
	assert.Equal(t, 1.0, inf.Confidence)
}

func TestInfer_EmptySamples(t *testing.T) {
	inf := Infer([]string{"", "  ", ""})
	assert.Equal(t, TypeText, inf.Type)
	assert.Equal(t, 0.0, inf.Confidence)
}

func TestInfer_AccountingNegatives(t *testing.T) {
	inf := Infer([]string{"($4.00)", "$12.75", "($82.17)"})
	assert.Equal(t, TypeCurrency, inf.Type)
}

func TestTypeFromString(t *testing.T) {
	assert.Equal(t, TypeBoolean, TypeFromString("bool"))
	assert.Equal(t, TypeCurrency, TypeFromString("Currency"))
	assert.Equal(t, TypeNumber, TypeFromString("numeric"))
	assert.Equal(t, TypeDate, TypeFromString("datetime"))
	assert.Equal(t, TypeText, TypeFromString("whatever"))
}

func TestConvert_Numbers(t *testing.T) {
	v := Convert("$1,234.56", TypeCurrency)
	require.Equal(t, model.KindNumber, v.Kind())
	assert.True(t, v.AsNumber().Equal(decimal.RequireFromString("1234.56")))

	v = Convert("(82.17)", TypeNumber)
	require.Equal(t, model.KindNumber, v.Kind())
	assert.True(t, v.AsNumber().Equal(decimal.RequireFromString("-82.17")))

	assert.True(t, Convert("n/a", TypeNumber).IsNull())
}

func TestConvert_Booleans(t *testing.T) {
	v := Convert("Yes", TypeBoolean)
	require.Equal(t, model.KindBool, v.Kind())
	assert.True(t, v.AsBool())

	v = Convert("0", TypeBoolean)
	require.Equal(t, model.KindBool, v.Kind())
	assert.False(t, v.AsBool())

	assert.True(t, Convert("maybe", TypeBoolean).IsNull())
}

func TestConvert_Dates(t *testing.T) {
	v := Convert("1/5/2025", TypeDate)
	require.Equal(t, model.KindDate, v.Kind())
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), v.AsDate())

	assert.True(t, Convert("not a date", TypeDate).IsNull())
}

func TestConvert_EmptyIsNull(t *testing.T) {
	for _, typ := range []Type{TypeBoolean, TypeCurrency, TypeNumber, TypeDate, TypeText} {
		assert.True(t, Convert("  ", typ).IsNull(), string(typ))
	}
}

func TestConvert_TextTrims(t *testing.T) {
	v := Convert("  GITHUB  ", TypeText)
	require.Equal(t, model.KindText, v.Kind())
	assert.Equal(t, "GITHUB", v.AsText())
}
