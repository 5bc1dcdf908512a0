// Package detect classifies input files as CSV, JSON, delimited text, or
// XLSX. Content sniffing runs first; the file extension is a fallback.
package detect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "text" // delimited text, parsed as a CSV variant
	FormatXLSX Format = "xlsx"
)

// xlsxMagic is the zip local-file-header signature.
var xlsxMagic = []byte{'P', 'K', 0x03, 0x04}

// extFormats maps lowercase file extensions to formats.
var extFormats = map[string]Format{
	".csv":  FormatCSV,
	".json": FormatJSON,
	".txt":  FormatText,
	".tsv":  FormatText,
	".xlsx": FormatXLSX,
}

// Detect classifies a file from a content sample and its name. The sample
// need not be the whole file; the first few hundred bytes suffice. Returns
// an UNSUPPORTED_FORMAT error when neither sniffing nor the extension
// yields a recognized type.
func Detect(sample []byte, filename string) (Format, *model.ParseError) {
	if f, ok := sniff(sample); ok {
		return f, nil
	}
	if f, ok := extFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, nil
	}
	return "", model.NewParseError(model.CodeUnsupportedFormat, "cannot determine format of %q", filepath.Base(filename))
}

// sniff inspects content for structural markers. Pure classification, no
// side effects.
func sniff(sample []byte) (Format, bool) {
	if bytes.HasPrefix(sample, xlsxMagic) {
		return FormatXLSX, true
	}

	trimmed := bytes.TrimLeft(stripBOM(sample), " \t\r\n")
	if len(trimmed) == 0 {
		return "", false
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return FormatJSON, true
	}

	// A header line split by a common delimiter into 2+ fields looks like
	// CSV. Tab-delimited content is reported as text so the parser keeps
	// the delimiter it sniffed.
	line := firstLine(trimmed)
	if strings.Count(line, "\t") >= 1 {
		return FormatText, true
	}
	if strings.Count(line, ",") >= 1 || strings.Count(line, ";") >= 1 {
		return FormatCSV, true
	}
	return "", false
}

func firstLine(b []byte) string {
	if i := bytes.IndexAny(b, "\r\n"); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
