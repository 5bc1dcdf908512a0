package parser

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestXLSXParser_HeaderAndRows(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Date", "Description", "Amount"},
		{"2025-01-03", "GITHUB", "-4.00"},
		{"2025-01-04", "DELI", "-12.75"},
	})

	var rows []model.RawRow
	err := (&XLSXParser{}).Parse(context.Background(), buf, Options{}, func(row model.RawRow) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, rows[0].Columns)
	assert.Equal(t, "GITHUB", rows[0].Values["Description"])
	assert.Equal(t, "-12.75", rows[1].Values["Amount"])
}

func TestXLSXParser_NoHeader(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"2025-01-03", "GITHUB", "-4.00"},
	})

	var rows []model.RawRow
	err := (&XLSXParser{}).Parse(context.Background(), buf, Options{}, func(row model.RawRow) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GITHUB", rows[0].Values["Column_2"])
}

func TestXLSXParser_NotAWorkbook(t *testing.T) {
	err := (&XLSXParser{}).Parse(context.Background(), bytes.NewReader([]byte("plain text")), Options{}, func(model.RawRow) error {
		return nil
	})
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.CodeUnsupportedFormat, perr.Code)
}
