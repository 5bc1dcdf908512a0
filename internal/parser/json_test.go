package parser

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func TestJSONParser_Array(t *testing.T) {
	input := `[
		{"date": "2025-01-03", "amount": -4.00, "merchant": "GITHUB"},
		{"date": "2025-01-04", "amount": -12.75, "merchant": "DELI"}
	]`
	rows := parseAll(t, &JSONParser{}, input, Options{})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"amount", "date", "merchant"}, rows[0].Columns)
	assert.Equal(t, "GITHUB", rows[0].Values["merchant"])
	assert.Equal(t, json.Number("-12.75"), rows[1].Values["amount"])
	assert.Equal(t, 2, rows[1].Line)
}

func TestJSONParser_WrappedList(t *testing.T) {
	data, err := os.ReadFile("../../testdata/wrapped.json")
	require.NoError(t, err)

	rows := parseAll(t, &JSONParser{}, string(data), Options{})
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.False(t, row.Malformed)
		assert.Contains(t, row.Values, "date")
	}
}

func TestJSONParser_SingleObject(t *testing.T) {
	rows := parseAll(t, &JSONParser{}, `{"date": "2025-01-03", "amount": -4.00}`, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("-4.00"), rows[0].Values["amount"])
}

func TestJSONParser_EmptyArrayFatal(t *testing.T) {
	err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(`[]`), Options{}, func(model.RawRow) error {
		t.Fatal("no rows expected")
		return nil
	})
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.CodeJSONParseError, perr.Code)
	assert.Contains(t, perr.Message, "empty")
}

func TestJSONParser_InvalidSyntax(t *testing.T) {
	err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(`[{"a": 1}, {"b": `), Options{}, func(model.RawRow) error {
		return nil
	})
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.CodeJSONParseError, perr.Code)
}

func TestJSONParser_TopLevelScalarRejected(t *testing.T) {
	err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(`42`), Options{}, func(model.RawRow) error {
		return nil
	})
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.CodeJSONParseError, perr.Code)
}

func TestJSONParser_NonObjectElementMalformed(t *testing.T) {
	rows := parseAll(t, &JSONParser{}, `[{"a": 1}, "stray", {"a": 2}]`, Options{})
	require.Len(t, rows, 3)
	assert.False(t, rows[0].Malformed)
	assert.True(t, rows[1].Malformed)
	assert.Equal(t, "stray", rows[1].Values["value"])
	assert.False(t, rows[2].Malformed)
}

func TestJSONParser_NestedObjectsSurvive(t *testing.T) {
	data, err := os.ReadFile("../../testdata/nested.json")
	require.NoError(t, err)

	rows := parseAll(t, &JSONParser{}, string(data), Options{})
	require.Len(t, rows, 2)
	merchant, ok := rows[0].Values["merchant"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, merchant, "name")
}

func TestJSONParser_MaxRows(t *testing.T) {
	rows := parseAll(t, &JSONParser{}, `[{"a":1},{"a":2},{"a":3}]`, Options{MaxRows: 2})
	assert.Len(t, rows, 2)
}
