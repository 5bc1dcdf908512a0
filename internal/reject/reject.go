// Package reject accumulates rows that failed validation and materializes
// an advisory side CSV next to the source file. The report is best-effort;
// parsing is correct without it.
package reject

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Entry is one rejected row with its reasons.
type Entry struct {
	RowNumber int
	Errors    []*model.ParseError
	Row       model.ParsedRow
}

// Header is the CSV header for the rejects file.
const Header = "Row Number,Error,Data"

// Sink collects rejected rows for one parse invocation.
type Sink struct {
	entries []Entry
}

// NewSink creates an empty sink.
func NewSink() *Sink { return &Sink{} }

// Add records a rejected row.
func (s *Sink) Add(rowNumber int, row model.ParsedRow, errs ...*model.ParseError) {
	s.entries = append(s.entries, Entry{RowNumber: rowNumber, Errors: errs, Row: row})
}

// Count returns the number of rejected rows.
func (s *Sink) Count() int { return len(s.entries) }

// Entries returns the accumulated rejections in row order.
func (s *Sink) Entries() []Entry { return s.entries }

// RejectPath derives the side-file path: statement.csv -> statement.rejects.csv.
func RejectPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ".rejects.csv"
}

// WriteFile writes the rejects CSV next to the source file and returns its
// path. The Data column is the JSON-encoded row; encoding/csv doubles any
// internal quotes per CSV quoting rules.
func (s *Sink) WriteFile(sourcePath string) (string, error) {
	path := RejectPath(sourcePath)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating reject file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	for _, e := range s.entries {
		data, err := json.Marshal(e.Row)
		if err != nil {
			return "", fmt.Errorf("encoding row %d: %w", e.RowNumber, err)
		}
		msgs := make([]string, len(e.Errors))
		for i, pe := range e.Errors {
			msgs[i] = pe.Message
		}
		rec := []string{strconv.Itoa(e.RowNumber), strings.Join(msgs, "; "), string(data)}
		if err := cw.Write(rec); err != nil {
			return "", fmt.Errorf("writing row %d: %w", e.RowNumber, err)
		}
	}
	if err := cw.Error(); err != nil {
		return "", err
	}
	return path, nil
}
