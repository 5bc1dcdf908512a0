package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/detect"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// CSVParser is a streaming RFC4180 parser. It scans logical records with a
// quote-aware splitter, so quoted fields may contain embedded newlines,
// doubled quotes unescape to literal quotes, and CRLF / lone-CR line
// endings normalize to LF. Delimited text files reuse it unchanged.
type CSVParser struct {
	format detect.Format
}

// NewCSVParser returns the parser for .csv files.
func NewCSVParser() *CSVParser { return &CSVParser{format: detect.FormatCSV} }

// NewTextParser returns the parser for delimited .txt/.tsv files.
func NewTextParser() *CSVParser { return &CSVParser{format: detect.FormatText} }

// Format returns the parser name.
func (p *CSVParser) Format() detect.Format { return p.format }

// maxRecordSize bounds a single logical record (quoted multi-line fields
// included).
const maxRecordSize = 1 << 20

// Parse reads records from r and emits one RawRow per data row.
func (p *CSVParser) Parse(ctx context.Context, r io.Reader, opts Options, emit RowFunc) error {
	rd, _, err := SkipBOM(r)
	if err != nil {
		return model.NewParseError(model.CodeIOError, "reading input: %v", err)
	}

	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), maxRecordSize)
	sc.Split(scanRecords)

	var (
		columns []string
		delim   rune
		rowNum  int
	)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		record := sc.Text()
		if strings.TrimSpace(record) == "" {
			continue
		}

		if columns == nil {
			if delim = opts.Delimiter; delim == 0 {
				delim = detectDelimiter(record)
			}
			first := splitFields(record, delim)
			if rowLooksLikeHeader(first) {
				columns = trimAll(first)
				continue
			}
			columns = syntheticColumns(len(first))
			rowNum++
			if err := emit(makeRawRow(rowNum, columns, first)); err != nil {
				return err
			}
			continue
		}

		fields := splitFields(record, delim)
		rowNum++
		if err := emit(makeRawRow(rowNum, columns, fields)); err != nil {
			return err
		}
		if opts.MaxRows > 0 && rowNum >= opts.MaxRows {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return model.NewParseError(model.CodeIOError, "scanning records: %v", err)
	}
	return nil
}

// makeRawRow pairs fields with columns. A column-count mismatch marks the
// row malformed rather than failing the parse; short rows pad with empty
// strings and extra fields land under synthetic names.
func makeRawRow(line int, columns, fields []string) model.RawRow {
	row := model.RawRow{
		Line:      line,
		Columns:   columns,
		Values:    make(map[string]any, len(columns)),
		Malformed: len(fields) != len(columns),
	}
	for i, col := range columns {
		if i < len(fields) {
			row.Values[col] = fields[i]
		} else {
			row.Values[col] = ""
		}
	}
	for i := len(columns); i < len(fields); i++ {
		name := "Column_" + strconv.Itoa(i+1)
		row.Columns = append(row.Columns, name)
		row.Values[name] = fields[i]
	}
	return row
}

// scanRecords is a bufio.SplitFunc producing logical CSV records. A quote
// toggles quoted state; newlines inside quotes do not terminate the record.
func scanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	inQuotes := false
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				return i + 1, normalizeLineEndings(data[:i]), nil
			}
		case '\r':
			if inQuotes {
				continue
			}
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, normalizeLineEndings(data[:i]), nil
				}
				return i + 1, normalizeLineEndings(data[:i]), nil
			}
			if atEOF {
				return i + 1, normalizeLineEndings(data[:i]), nil
			}
			// Need one more byte to tell CR from CRLF.
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), normalizeLineEndings(data), nil
	}
	return 0, nil, nil
}

// normalizeLineEndings rewrites CRLF and lone CR inside a record (possible
// within quoted fields) to LF.
func normalizeLineEndings(b []byte) []byte {
	if !bytes.ContainsRune(b, '\r') {
		return b
	}
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
}

// detectDelimiter samples the header record. Comma, semicolon, and tab are
// counted; runs of multiple spaces are the last resort before the comma
// default.
func detectDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := countOutsideQuotes(header, byte(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	if bestCount == 0 && strings.Contains(header, "  ") {
		return ' '
	}
	return best
}

func countOutsideQuotes(s string, c byte) int {
	n := 0
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuotes = !inQuotes
		case s[i] == c && !inQuotes:
			n++
		}
	}
	return n
}

// splitFields splits one logical record into fields, unescaping doubled
// quotes. A space delimiter means "two or more consecutive spaces".
func splitFields(record string, delim rune) []string {
	if delim == ' ' {
		return splitMultiSpace(record)
	}
	d := byte(delim)
	var fields []string
	var b strings.Builder
	inQuotes := false
	for i := 0; i < len(record); i++ {
		c := record[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(record) && record[i+1] == '"' {
				b.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == d && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(fields, b.String())
}

func splitMultiSpace(record string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false
	i := 0
	for i < len(record) {
		c := record[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(record) && record[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}
			inQuotes = !inQuotes
			i++
		case c == ' ' && !inQuotes && i+1 < len(record) && record[i+1] == ' ':
			fields = append(fields, b.String())
			b.Reset()
			for i < len(record) && record[i] == ' ' {
				i++
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return append(fields, b.String())
}

// rowLooksLikeHeader applies the header heuristic: a row with no
// numeric-looking fields is treated as the header.
func rowLooksLikeHeader(fields []string) bool {
	for _, f := range fields {
		if fieldLooksNumeric(f) {
			return false
		}
	}
	return true
}

func fieldLooksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "$€£()")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// syntheticColumns names headerless columns Column_1..N.
func syntheticColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("Column_%d", i+1)
	}
	return cols
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
