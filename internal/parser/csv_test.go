package parser

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func parseAll(t *testing.T, p Parser, input string, opts Options) []model.RawRow {
	t.Helper()
	var rows []model.RawRow
	err := p.Parse(context.Background(), strings.NewReader(input), opts, func(row model.RawRow) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	return rows
}

func TestCSVParser_Basic(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "Date,Description,Amount\n2025-01-03,GITHUB,-4.00\n2025-01-04,DELI,-12.75\n", Options{})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, rows[0].Columns)
	assert.Equal(t, "GITHUB", rows[0].Values["Description"])
	assert.Equal(t, "-12.75", rows[1].Values["Amount"])
	assert.Equal(t, 2, rows[1].Line)
}

func TestCSVParser_QuotedNewlineStaysOneRow(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "Date,Notes\n2024-01-01,\"line1\nline2\"\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "line1\nline2", rows[0].Values["Notes"])
}

func TestCSVParser_QuotedCRLFNormalized(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "Date,Notes\r\n2024-01-01,\"a\r\nb\"\r\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "a\nb", rows[0].Values["Notes"])
}

func TestCSVParser_DoubledQuotes(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "Quote,Amount\n\"He said \"\"Hi\"\"\",1.00\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, `He said "Hi"`, rows[0].Values["Quote"])
}

func TestCSVParser_LoneCRLineEndings(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "Date,Amount\r2025-01-01,1.00\r2025-01-02,2.00\r", Options{})
	require.Len(t, rows, 2)
	assert.Equal(t, "2.00", rows[1].Values["Amount"])
}

func TestCSVParser_SemicolonAutoDetect(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "Datum;Betrag\n2025-02-01;-45.30\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "-45.30", rows[0].Values["Betrag"])
}

func TestCSVParser_TabAutoDetect(t *testing.T) {
	rows := parseAll(t, NewTextParser(), "Date\tAmount\n2025-02-01\t-45.30\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "-45.30", rows[0].Values["Amount"])
}

func TestCSVParser_MultiSpaceDelimiter(t *testing.T) {
	rows := parseAll(t, NewTextParser(), "Date       Amount\n2025-02-01    -45.30\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "-45.30", rows[0].Values["Amount"])
}

func TestCSVParser_DelimiterOverride(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "a|b\nx|y\n", Options{Delimiter: '|'})
	require.Len(t, rows, 1)
	assert.Equal(t, "y", rows[0].Values["b"])
}

func TestCSVParser_NoHeaderSyntheticColumns(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "2025-01-01,GITHUB,-4.00\n2025-01-02,DELI,-12.75\n", Options{})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Column_1", "Column_2", "Column_3"}, rows[0].Columns)
	assert.Equal(t, "GITHUB", rows[0].Values["Column_2"])
}

func TestCSVParser_MalformedRowFlagged(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "a,b,c\n1,2,3\n1,2\n1,2,3,4\n", Options{})
	require.Len(t, rows, 3)
	assert.False(t, rows[0].Malformed)
	assert.True(t, rows[1].Malformed)
	assert.Equal(t, "", rows[1].Values["c"])
	assert.True(t, rows[2].Malformed)
	assert.Equal(t, "4", rows[2].Values["Column_4"])
}

func TestCSVParser_UTF8BOMSkipped(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "\xEF\xBB\xBFDate,Amount\n2025-01-01,1.00\n", Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Date", "Amount"}, rows[0].Columns)
}

func TestCSVParser_MaxRows(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "a,b\n1,2\n3,4\n5,6\n", Options{MaxRows: 2})
	assert.Len(t, rows, 2)
}

func TestCSVParser_SkipsBlankLines(t *testing.T) {
	rows := parseAll(t, NewCSVParser(), "a,b\n1,2\n\n\n3,4\n", Options{})
	assert.Len(t, rows, 2)
}

func TestCSVParser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewCSVParser().Parse(ctx, strings.NewReader("a,b\n1,2\n"), Options{}, func(model.RawRow) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVParser_Testdata(t *testing.T) {
	data, err := os.ReadFile("../../testdata/checking.csv")
	require.NoError(t, err)

	rows := parseAll(t, NewCSVParser(), string(data), Options{})
	require.Len(t, rows, 4)
	assert.Equal(t, "TRADER JOES\nSTORE #553", rows[1].Values["Description"])
	assert.Equal(t, `He said "thanks"`, rows[2].Values["Description"])
	assert.Equal(t, "3500.00", rows[3].Values["Amount"])
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.NotNil(t, r.Get("csv"))
	require.NotNil(t, r.Get("json"))
	require.NotNil(t, r.Get("text"))
	require.NotNil(t, r.Get("xlsx"))
	assert.Nil(t, r.Get("ofx"))

	assert.Panics(t, func() { r.Register(NewCSVParser()) })
}
