package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/infer"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func validRow() model.ParsedRow {
	return model.ParsedRow{
		"date":        model.Date(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)),
		"amount":      model.Number(decimal.RequireFromString("-4.00")),
		"description": model.Text("GITHUB"),
	}
}

func TestSchema_ValidRow(t *testing.T) {
	schema := Schema{
		"date":        {Required: true, Type: infer.TypeDate},
		"amount":      {Required: true, Type: infer.TypeCurrency},
		"description": {Type: infer.TypeText},
	}
	assert.Empty(t, schema.Validate(validRow()))
}

func TestSchema_RequiredMissing(t *testing.T) {
	schema := Schema{"amount": {Required: true}}
	errs := schema.Validate(model.ParsedRow{"date": model.Text("x")})
	require.Len(t, errs, 1)
	assert.Equal(t, "amount", errs[0].Field)
	assert.Contains(t, errs[0].Error(), "required")
}

func TestSchema_RequiredNull(t *testing.T) {
	schema := Schema{"amount": {Required: true}}
	errs := schema.Validate(model.ParsedRow{"amount": model.Null()})
	require.Len(t, errs, 1)
}

func TestSchema_OptionalMissingOK(t *testing.T) {
	schema := Schema{"memo": {Type: infer.TypeText}}
	assert.Empty(t, schema.Validate(validRow()))
}

func TestSchema_TypeMismatch(t *testing.T) {
	schema := Schema{"amount": {Type: infer.TypeNumber}}
	errs := schema.Validate(model.ParsedRow{"amount": model.Text("four dollars")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "expected number")
}

func TestSchema_TextTypeAcceptsAnyKind(t *testing.T) {
	schema := Schema{"amount": {Type: infer.TypeText}}
	assert.Empty(t, schema.Validate(validRow()))
}

func TestSchema_NilAcceptsEverything(t *testing.T) {
	var schema Schema
	assert.Empty(t, schema.Validate(validRow()))
}
