package parser

import (
	"context"
	"encoding/json"
	"io"
	"sort"

	"github.com/bankfeed-dev/bankfeed/internal/detect"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// JSONParser accepts a top-level array of objects (streamed element by
// element), a single object (one row), or an object wrapping exactly one
// list of records, discovered by scanning top-level keys for the longest
// array of object-like elements.
type JSONParser struct{}

// Format returns the parser name.
func (p *JSONParser) Format() detect.Format { return detect.FormatJSON }

// Parse reads JSON from r and emits raw rows. Invalid syntax fails fast
// with JSON_PARSE_ERROR; no partial rows survive a syntax error.
func (p *JSONParser) Parse(ctx context.Context, r io.Reader, opts Options, emit RowFunc) error {
	rd, _, err := SkipBOM(r)
	if err != nil {
		return model.NewParseError(model.CodeIOError, "reading input: %v", err)
	}

	dec := json.NewDecoder(rd)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return model.NewParseError(model.CodeJSONParseError, "invalid JSON: %v", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return model.NewParseError(model.CodeJSONParseError, "top-level value must be an object or array, got %v", tok)
	}

	switch delim {
	case '[':
		return p.parseArray(ctx, dec, opts, emit)
	case '{':
		return p.parseObject(ctx, dec, opts, emit)
	default:
		return model.NewParseError(model.CodeJSONParseError, "unexpected token %v", delim)
	}
}

// parseArray streams elements of a top-level array. An empty array is a
// file-level failure, not a per-row one.
func (p *JSONParser) parseArray(ctx context.Context, dec *json.Decoder, opts Options, emit RowFunc) error {
	if !dec.More() {
		return model.NewParseError(model.CodeJSONParseError, "JSON array is empty")
	}

	rowNum := 0
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var elem any
		if err := dec.Decode(&elem); err != nil {
			return model.NewParseError(model.CodeJSONParseError, "invalid JSON: %v", err)
		}
		rowNum++
		if err := emit(rowFromElement(rowNum, elem)); err != nil {
			return err
		}
		if opts.MaxRows > 0 && rowNum >= opts.MaxRows {
			return nil
		}
	}
	if _, err := dec.Token(); err != nil {
		return model.NewParseError(model.CodeJSONParseError, "invalid JSON: %v", err)
	}
	return nil
}

// parseObject reads a whole top-level object, then either explodes the
// wrapped record list or emits the object as a single row.
func (p *JSONParser) parseObject(ctx context.Context, dec *json.Decoder, opts Options, emit RowFunc) error {
	obj := make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return model.NewParseError(model.CodeJSONParseError, "invalid JSON: %v", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return model.NewParseError(model.CodeJSONParseError, "unexpected object key %v", keyTok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return model.NewParseError(model.CodeJSONParseError, "invalid JSON: %v", err)
		}
		obj[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return model.NewParseError(model.CodeJSONParseError, "invalid JSON: %v", err)
	}

	if list, ok := findRecordList(obj); ok {
		rowNum := 0
		for _, elem := range list {
			if err := ctx.Err(); err != nil {
				return err
			}
			rowNum++
			if err := emit(rowFromElement(rowNum, elem)); err != nil {
				return err
			}
			if opts.MaxRows > 0 && rowNum >= opts.MaxRows {
				return nil
			}
		}
		return nil
	}

	return emit(rowFromElement(1, obj))
}

// findRecordList returns the longest top-level array whose elements are
// mostly objects. This is the common "wrapped transaction list" shape.
func findRecordList(obj map[string]any) ([]any, bool) {
	var best []any
	for _, v := range obj {
		arr, ok := v.([]any)
		if !ok || len(arr) <= len(best) {
			continue
		}
		objects := 0
		for _, e := range arr {
			if _, ok := e.(map[string]any); ok {
				objects++
			}
		}
		if objects*2 > len(arr) {
			best = arr
		}
	}
	return best, best != nil
}

// rowFromElement builds a RawRow from one decoded element. Non-object
// elements are malformed rows carried under a single synthetic column.
// Column order is sorted for determinism since Go maps are unordered.
func rowFromElement(line int, elem any) model.RawRow {
	obj, ok := elem.(map[string]any)
	if !ok {
		return model.RawRow{
			Line:      line,
			Columns:   []string{"value"},
			Values:    map[string]any{"value": elem},
			Malformed: true,
		}
	}
	cols := make([]string, 0, len(obj))
	for k := range obj {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return model.RawRow{Line: line, Columns: cols, Values: obj}
}
