// Package parser provides streaming parsers that turn bank-export files
// into a sequence of raw rows. Parsers never materialize typed values;
// transformation and coercion happen downstream.
package parser

import (
	"context"
	"io"
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/detect"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// RowFunc receives one raw row in file order. Returning an error stops the
// parse and propagates out of Parse.
type RowFunc func(row model.RawRow) error

// Options control a single parse.
type Options struct {
	// Delimiter overrides delimiter auto-detection when non-zero. A space
	// means "runs of two or more spaces".
	Delimiter rune
	// MaxRows stops parsing after this many data rows (0 = unbounded).
	MaxRows int
}

// Parser converts a bank-export stream into raw rows.
type Parser interface {
	Format() detect.Format
	Parse(ctx context.Context, r io.Reader, opts Options, emit RowFunc) error
}

// Registry holds parsers keyed by format.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(string(p.Format()))
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format detect.Format) Parser {
	return r.parsers[strings.ToLower(string(format))]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCSVParser())
	r.Register(NewTextParser())
	r.Register(&JSONParser{})
	r.Register(&XLSXParser{})
	return r
}
