package engine

import "time"

// Phase tags a progress event with the pipeline stage.
type Phase string

const (
	PhaseDetecting    Phase = "detecting"
	PhaseParsing      Phase = "parsing"
	PhaseTransforming Phase = "transforming"
)

// TotalUnknown marks Progress.Total before the full row count is
// established at end of stream.
const TotalUnknown = -1

// Progress is one informational progress message.
type Progress struct {
	Processed              int
	Total                  int // TotalUnknown until the stream ends
	Phase                  Phase
	CurrentFile            string
	EstimatedTimeRemaining time.Duration
}

// ProgressFunc receives progress messages during a parse.
type ProgressFunc func(Progress)

// Event is one message on the async parse stream: a progress update or, as
// the final message, the result.
type Event struct {
	Progress *Progress
	Result   *Result
}
