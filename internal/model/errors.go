package model

import "fmt"

// Code classifies a parse failure. The taxonomy is part of the public
// contract; callers branch on Code, never on message text.
type Code string

const (
	CodeUnsupportedFormat   Code = "UNSUPPORTED_FORMAT"
	CodeSchemaMismatch      Code = "SCHEMA_MISMATCH"
	CodeCSVRowInvalid       Code = "CSV_ROW_INVALID"
	CodeJSONParseError      Code = "JSON_PARSE_ERROR"
	CodeFileTooLarge        Code = "FILE_TOO_LARGE"
	CodeMemoryLimitExceeded Code = "MEMORY_LIMIT_EXCEEDED"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeTransformError      Code = "TRANSFORM_ERROR"
	CodeIOError             Code = "IO_ERROR"
)

// ParseError is a typed parse failure. Row and Column are optional context
// (zero row means file-level). Immutable once created.
type ParseError struct {
	Code    Code
	Message string
	Row     int
	Column  string
	Meta    map[string]string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s (row %d): %s", e.Code, e.Row, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewParseError creates a file-level ParseError.
func NewParseError(code Code, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewRowError creates a row-scoped ParseError.
func NewRowError(code Code, row int, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Row: row, Message: fmt.Sprintf(format, args...)}
}
