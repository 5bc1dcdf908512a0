package engine

import (
	"github.com/bankfeed-dev/bankfeed/internal/infer"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Stats aggregates counters for one parse. Counters are monotonic while
// rows are processed and final once the parse returns.
type Stats struct {
	TotalRows        int
	ValidRows        int
	RejectedRows     int
	ProcessingTimeMs int64
	FileSizeBytes    int64
}

// FieldDescriptor reports one inferred column, computed from a bounded
// sample of leading rows. Outlier values later in the stream do not change
// an already-reported type.
type FieldDescriptor struct {
	Name        string
	Type        infer.Type
	Confidence  float64
	SampleValue string
}

// Result is the unified outcome of one parse invocation. Success is true
// when at least one row validated, even with rejections; full failure only
// on a fatal file-level error or when every row was rejected.
type Result struct {
	Success        bool
	Data           []model.ParsedRow
	Errors         []*model.ParseError
	Warnings       []string
	RejectFilePath string
	Stats          Stats
	Fields         []FieldDescriptor
	HasBOM         bool
}
