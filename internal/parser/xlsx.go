package parser

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bankfeed-dev/bankfeed/internal/detect"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// XLSXParser reads the first sheet of a workbook. Some banks only export
// xlsx; rows feed the same pipeline as CSV.
type XLSXParser struct{}

// Format returns the parser name.
func (p *XLSXParser) Format() detect.Format { return detect.FormatXLSX }

// Parse opens the workbook and emits one RawRow per data row of the first
// sheet, applying the same header heuristic as the CSV parser.
func (p *XLSXParser) Parse(ctx context.Context, r io.Reader, opts Options, emit RowFunc) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.NewParseError(model.CodeUnsupportedFormat, "opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.NewParseError(model.CodeUnsupportedFormat, "workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return model.NewParseError(model.CodeIOError, "reading sheet %q: %v", sheets[0], err)
	}
	defer rows.Close()

	var columns []string
	rowNum := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := rows.Columns()
		if err != nil {
			return model.NewParseError(model.CodeIOError, "reading sheet row: %v", err)
		}
		if len(fields) == 0 {
			continue
		}

		if columns == nil {
			if rowLooksLikeHeader(fields) {
				columns = trimAll(fields)
				continue
			}
			columns = syntheticColumns(len(fields))
		}

		rowNum++
		if err := emit(makeRawRow(rowNum, columns, fields)); err != nil {
			return err
		}
		if opts.MaxRows > 0 && rowNum >= opts.MaxRows {
			return nil
		}
	}
	return nil
}
