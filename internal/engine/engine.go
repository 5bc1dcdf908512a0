// Package engine wires format detection, streaming parsers, structural
// transforms, type inference, validation, and the reject sink into a single
// parse call. One invocation owns all of its state; nothing persists across
// calls.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/bankfeed-dev/bankfeed/internal/detect"
	"github.com/bankfeed-dev/bankfeed/internal/infer"
	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/parser"
	"github.com/bankfeed-dev/bankfeed/internal/reject"
	"github.com/bankfeed-dev/bankfeed/internal/transform"
	"github.com/bankfeed-dev/bankfeed/internal/validate"
)

// sniffSize is how much of the file head feeds format detection.
const sniffSize = 512

// Engine is the parse orchestrator.
type Engine struct {
	registry *parser.Registry
}

// New creates an Engine with all built-in parsers.
func New() *Engine {
	return &Engine{registry: parser.DefaultRegistry()}
}

// flatRow is one transformed row awaiting coercion and validation.
type flatRow struct {
	line      int
	malformed bool
	values    map[string]any
}

// ParseFile parses one file end to end. It never panics or returns a Go
// error past its boundary: every outcome, fatal ones included, is a Result.
func ParseFile(ctx context.Context, path string, opts Options) *Result {
	return New().ParseFile(ctx, path, opts)
}

// ParseFile parses one file end to end.
func (e *Engine) ParseFile(ctx context.Context, path string, opts Options) *Result {
	start := time.Now()
	opts = opts.withDefaults()
	res := &Result{}

	fatal := func(pe *model.ParseError) *Result {
		opts.Logger.Error("parse failed", "file", path, "code", string(pe.Code), "error", pe.Message)
		res.Success = false
		res.Data = nil
		res.Errors = append(res.Errors, pe)
		res.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()
		return res
	}

	e.report(opts, Progress{Phase: PhaseDetecting, Total: TotalUnknown, CurrentFile: path})

	info, err := os.Stat(path)
	if err != nil {
		return fatal(model.NewParseError(model.CodeIOError, "stat %s: %v", filepath.Base(path), err))
	}
	res.Stats.FileSizeBytes = info.Size()
	if info.Size() == 0 {
		return fatal(model.NewParseError(model.CodeIOError, "file is empty"))
	}
	if info.Size() > opts.MaxMemoryUsage {
		return fatal(model.NewParseError(model.CodeFileTooLarge,
			"file size %d exceeds limit %d", info.Size(), opts.MaxMemoryUsage))
	}

	f, err := os.Open(path)
	if err != nil {
		return fatal(model.NewParseError(model.CodeIOError, "open %s: %v", filepath.Base(path), err))
	}
	defer f.Close()

	sample := make([]byte, sniffSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fatal(model.NewParseError(model.CodeIOError, "reading %s: %v", filepath.Base(path), err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fatal(model.NewParseError(model.CodeIOError, "seek %s: %v", filepath.Base(path), err))
	}
	res.HasBOM = parser.SniffBOM(sample[:n]).Present

	format, perr := detect.Detect(sample[:n], path)
	if perr != nil {
		return fatal(perr)
	}
	p := e.registry.Get(format)
	if p == nil {
		return fatal(model.NewParseError(model.CodeUnsupportedFormat, "no parser for format %q", format))
	}
	opts.Logger.Debug("format detected", "file", path, "format", string(format), "bom", res.HasBOM)

	// Parsing phase: stream raw rows, transforming each as it arrives.
	var (
		flat     []flatRow
		colOrder []string
		colSeen  = make(map[string]bool)
	)
	processed := 0
	parseErr := p.Parse(ctx, f, parser.Options{Delimiter: opts.Delimiter, MaxRows: opts.MaxRows}, func(row model.RawRow) error {
		expanded, terr := expandRow(row, opts.Mapping, opts.MaxFlattenDepth)
		if terr != nil {
			flat = append(flat, flatRow{line: row.Line, values: nil})
			res.Errors = append(res.Errors, terr)
		} else {
			for _, values := range expanded {
				flat = append(flat, flatRow{line: row.Line, malformed: row.Malformed, values: values})
				colOrder = mergeColumns(colOrder, colSeen, row.Columns, values)
			}
		}

		processed++
		if processed%opts.ChunkSize == 0 {
			e.report(opts, Progress{Phase: PhaseParsing, Processed: processed, Total: TotalUnknown, CurrentFile: path})
			if opts.EnableGC {
				runtime.GC()
			}
			if err := memCheck(opts.MaxMemoryUsage); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return nil
	})
	if parseErr != nil {
		var pe *model.ParseError
		if errors.As(parseErr, &pe) {
			return fatal(pe)
		}
		if errors.Is(parseErr, context.Canceled) || errors.Is(parseErr, context.DeadlineExceeded) {
			return fatal(model.NewParseError(model.CodeIOError, "parse cancelled: %v", parseErr))
		}
		return fatal(model.NewParseError(model.CodeIOError, "%v", parseErr))
	}

	// Transforming phase: infer column types from a bounded sample, then
	// coerce and validate every row in file order.
	total := len(flat)
	e.report(opts, Progress{Phase: PhaseTransforming, Processed: 0, Total: total, CurrentFile: path})

	types := make(map[string]infer.Type, len(colOrder))
	for _, col := range colOrder {
		samples := columnSamples(flat, col, fieldSampleRows)
		inf := infer.Infer(samples)
		types[col] = inf.Type
		sample := ""
		if len(samples) > 0 {
			sample = samples[0]
		}
		res.Fields = append(res.Fields, FieldDescriptor{
			Name:        model.SanitizeFieldName(col),
			Type:        inf.Type,
			Confidence:  inf.Confidence,
			SampleValue: sample,
		})
	}

	if pe := schemaMismatch(opts.Expected, res.Fields); pe != nil {
		return fatal(pe)
	}

	sink := reject.NewSink()
	phaseStart := time.Now()
	for i, fr := range flat {
		rowNum := i + 1

		if fr.values == nil {
			// Transform failure already recorded; reject the row.
			sink.Add(rowNum, nil, model.NewRowError(model.CodeTransformError, rowNum, "row transform failed"))
			continue
		}
		if fr.malformed {
			warn := fmt.Sprintf("row %d: column count mismatch", fr.line)
			res.Warnings = append(res.Warnings, warn)
			sink.Add(rowNum, coerceRow(fr.values, types), model.NewRowError(model.CodeCSVRowInvalid, rowNum, "column count mismatch"))
			continue
		}

		parsed := coerceRow(fr.values, types)
		if rowErrs := opts.Expected.Validate(parsed); len(rowErrs) > 0 {
			pes := make([]*model.ParseError, len(rowErrs))
			for j, re := range rowErrs {
				pe := model.NewRowError(model.CodeValidationFailed, rowNum, "%s", re.Error())
				pe.Column = re.Field
				pes[j] = pe
			}
			res.Errors = append(res.Errors, pes...)
			sink.Add(rowNum, parsed, pes...)
			continue
		}
		res.Data = append(res.Data, parsed)

		if rowNum%opts.ChunkSize == 0 {
			e.report(opts, Progress{
				Phase:                  PhaseTransforming,
				Processed:              rowNum,
				Total:                  total,
				CurrentFile:            path,
				EstimatedTimeRemaining: estimateRemaining(phaseStart, rowNum, total),
			})
		}
	}

	res.Stats.TotalRows = total
	res.Stats.ValidRows = len(res.Data)
	res.Stats.RejectedRows = sink.Count()

	if sink.Count() > 0 {
		rejectPath, err := sink.WriteFile(path)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not write reject file: %v", err))
		} else {
			res.RejectFilePath = rejectPath
			res.Warnings = append(res.Warnings, fmt.Sprintf("%d rejected rows written to %s", sink.Count(), rejectPath))
		}
	}

	// Partial-success policy: rejections alone do not fail the parse
	// unless nothing validated.
	res.Success = !(res.Stats.ValidRows == 0 && res.Stats.RejectedRows > 0)
	res.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.report(opts, Progress{Phase: PhaseTransforming, Processed: total, Total: total, CurrentFile: path})
	opts.Logger.Info("parse complete",
		"file", path,
		"rows", res.Stats.TotalRows,
		"valid", res.Stats.ValidRows,
		"rejected", res.Stats.RejectedRows,
		"ms", res.Stats.ProcessingTimeMs)
	return res
}

// ParseFileAsync runs the parse in its own goroutine and streams progress
// and the final result as discrete messages. The channel closes after the
// result message.
func (e *Engine) ParseFileAsync(ctx context.Context, path string, opts Options) <-chan Event {
	events := make(chan Event, 16)
	userProgress := opts.OnProgress
	opts.OnProgress = func(p Progress) {
		if userProgress != nil {
			userProgress(p)
		}
		pp := p
		events <- Event{Progress: &pp}
	}
	go func() {
		defer close(events)
		events <- Event{Result: e.ParseFile(ctx, path, opts)}
	}()
	return events
}

func (e *Engine) report(opts Options, p Progress) {
	if opts.OnProgress != nil {
		opts.OnProgress(p)
	}
}

// expandRow applies explode-then-flatten to one raw row. A panic inside the
// transforms becomes a TRANSFORM_ERROR instead of escaping the engine.
func expandRow(row model.RawRow, mapping map[string]transform.FieldMapping, maxDepth int) (out []map[string]any, pe *model.ParseError) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			pe = model.NewRowError(model.CodeTransformError, row.Line, "transform panic: %v", r)
		}
	}()
	for _, expanded := range transform.Expand(row.Values, mapping) {
		out = append(out, transform.FlattenDepth(expanded, "", maxDepth))
	}
	return out, nil
}

// mergeColumns keeps a stable first-seen column order, preferring the
// source order the parser reported.
func mergeColumns(order []string, seen map[string]bool, sourceCols []string, values map[string]any) []string {
	for _, c := range sourceCols {
		if _, ok := values[c]; ok && !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}
	var extras []string
	for k := range values {
		if !seen[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		seen[k] = true
		order = append(order, k)
	}
	return order
}

// columnSamples stringifies the column's values from the first maxRows rows.
func columnSamples(flat []flatRow, col string, maxRows int) []string {
	var out []string
	for i := 0; i < len(flat) && i < maxRows; i++ {
		if flat[i].values == nil {
			continue
		}
		if v, ok := flat[i].values[col]; ok {
			out = append(out, rawString(v))
		}
	}
	return out
}

// coerceRow converts raw values to typed values under sanitized names.
// Name collisions are not de-duplicated.
func coerceRow(values map[string]any, types map[string]infer.Type) model.ParsedRow {
	parsed := make(model.ParsedRow, len(values))
	for col, v := range values {
		parsed[model.SanitizeFieldName(col)] = infer.Convert(rawString(v), types[col])
	}
	return parsed
}

// rawString renders a raw cell for inference and coercion.
func rawString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// schemaMismatch fails the file when an expected schema shares no fields at
// all with what the file provides.
func schemaMismatch(expected validate.Schema, fields []FieldDescriptor) *model.ParseError {
	if len(expected) == 0 || len(fields) == 0 {
		return nil
	}
	present := make(map[string]bool, len(fields))
	for _, fd := range fields {
		present[fd.Name] = true
	}
	for name := range expected {
		if present[name] {
			return nil
		}
	}
	return model.NewParseError(model.CodeSchemaMismatch, "none of the expected fields are present in the file")
}

// memCheck fails the parse when the heap outgrows the configured ceiling.
func memCheck(limit int64) error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if int64(ms.HeapAlloc) > limit*4 {
		return model.NewParseError(model.CodeMemoryLimitExceeded,
			"heap usage %d exceeds limit", ms.HeapAlloc)
	}
	return nil
}

func estimateRemaining(start time.Time, done, total int) time.Duration {
	if done <= 0 || total <= done {
		return 0
	}
	perRow := time.Since(start) / time.Duration(done)
	return perRow * time.Duration(total-done)
}
