// Package errors provides error types and warning collection for the analyzer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// MalformedCapture represents a HAR document missing required structure. Fatal.
	MalformedCapture
	// BodyEncoding represents a body the inferrer cannot decode. Recoverable.
	BodyEncoding
	// SchemaConflict represents divergent types observed for the same field.
	// Never fatal; surfaced as a union type and recorded as a warning.
	SchemaConflict
	// Validation represents a structural validation failure of an emitted document.
	Validation
	// IO represents a file read/write failure.
	IO
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case MalformedCapture:
		return "malformed_capture"
	case BodyEncoding:
		return "body_encoding"
	case SchemaConflict:
		return "schema_conflict"
	case Validation:
		return "validation"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// IsFatal returns whether errors of this type abort the run.
func (t ErrorType) IsFatal() bool {
	switch t {
	case MalformedCapture, Validation, IO:
		return true
	default:
		return false
	}
}

// AnalysisError represents a categorized analysis error.
type AnalysisError struct {
	Type      ErrorType
	Capture   string // source capture file, if known
	Operation string
	Message   string
	Cause     error
	Entry     int // entry index within the capture, -1 when not entry-scoped
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	where := e.Capture
	if e.Entry >= 0 {
		where = fmt.Sprintf("%s entry %d", e.Capture, e.Entry)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, where, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, where, e.Message)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new AnalysisError.
func New(errType ErrorType, capture, operation, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Type:      errType,
		Capture:   capture,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Entry:     -1,
	}
}

// NewMalformedCapture creates a fatal malformed-capture error.
func NewMalformedCapture(capture, message string, cause error) *AnalysisError {
	return New(MalformedCapture, capture, "load", message, cause)
}

// NewBodyEncoding creates a recoverable body-encoding error scoped to one entry.
func NewBodyEncoding(capture string, entry int, encoding string) *AnalysisError {
	err := New(BodyEncoding, capture, "decode_body",
		fmt.Sprintf("unsupported body encoding %q, treating body as opaque", encoding), nil)
	err.Entry = entry
	return err
}

// NewSchemaConflict records a type conflict for a field. The location names
// the operation and field path the conflict was observed at.
func NewSchemaConflict(location string, types []string) *AnalysisError {
	return New(SchemaConflict, "", "merge_schema",
		fmt.Sprintf("%s observed with types %v, declaring union", location, types), nil)
}

// NewValidation creates a structural validation error.
func NewValidation(document, message string) *AnalysisError {
	return New(Validation, document, "validate", message, nil)
}

// NewIO creates an I/O error.
func NewIO(path, operation string, cause error) *AnalysisError {
	return New(IO, path, operation, "file operation failed", cause)
}

// IsFatal checks whether an error should abort the run.
func IsFatal(err error) bool {
	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		return aerr.Type.IsFatal()
	}
	return err != nil
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		return aerr.Type
	}
	return Unknown
}

// Warning is a recoverable condition collected during a run.
type Warning struct {
	Type    ErrorType `json:"type"`
	Capture string    `json:"capture,omitempty"`
	Entry   int       `json:"entry"`
	Message string    `json:"message"`
}

// MarshalText makes the warning type readable in JSON reports.
func (t ErrorType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Collector accumulates warnings so a single bad entry never aborts
// processing of an otherwise-valid capture.
type Collector struct {
	warnings []Warning
}

// NewCollector creates an empty warning collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a warning from an error.
func (c *Collector) Add(err *AnalysisError) {
	c.warnings = append(c.warnings, Warning{
		Type:    err.Type,
		Capture: err.Capture,
		Entry:   err.Entry,
		Message: err.Message,
	})
}

// Addf records a free-form warning.
func (c *Collector) Addf(errType ErrorType, capture string, entry int, format string, args ...interface{}) {
	c.warnings = append(c.warnings, Warning{
		Type:    errType,
		Capture: capture,
		Entry:   entry,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns the collected warnings in collection order.
func (c *Collector) Warnings() []Warning {
	return c.warnings
}

// Count returns the number of collected warnings.
func (c *Collector) Count() int {
	return len(c.warnings)
}
