package engine

import (
	"io"
	"log/slog"

	"github.com/bankfeed-dev/bankfeed/internal/transform"
	"github.com/bankfeed-dev/bankfeed/internal/validate"
)

const (
	// DefaultChunkSize is the row cadence for progress, cancellation, and
	// memory checks.
	DefaultChunkSize = 1000
	// DefaultMaxMemoryUsage caps input file size (bytes).
	DefaultMaxMemoryUsage = 512 << 20
	// fieldSampleRows bounds type inference to the first N accumulated
	// rows rather than a full-dataset scan.
	fieldSampleRows = 10
)

// Options control one parse invocation.
type Options struct {
	// Expected is the optional schema rows are validated against.
	Expected validate.Schema
	// Mapping declares array-typed fields and whether they explode.
	Mapping map[string]transform.FieldMapping
	// ChunkSize is the row cadence for progress and resource checks.
	ChunkSize int
	// MaxMemoryUsage is the input size ceiling in bytes.
	MaxMemoryUsage int64
	// EnableGC requests an advisory garbage-collection hint at chunk
	// boundaries. No correctness effect.
	EnableGC bool
	// MaxRows stops parsing after this many rows (0 = unbounded).
	MaxRows int
	// Delimiter overrides CSV delimiter auto-detection when non-zero.
	Delimiter rune
	// MaxFlattenDepth bounds structural flattening.
	MaxFlattenDepth int
	// Logger receives engine diagnostics. The engine keeps no global
	// logging state.
	Logger *slog.Logger
	// OnProgress receives phase-tagged progress events. Informational
	// only; it cannot mutate in-flight state.
	OnProgress ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxMemoryUsage <= 0 {
		o.MaxMemoryUsage = DefaultMaxMemoryUsage
	}
	if o.MaxFlattenDepth <= 0 {
		o.MaxFlattenDepth = transform.DefaultMaxDepth
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
