package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when the trimmed content is empty
	ErrNoContent = errors.New("leads: no content provided")

	// ErrContentTooLong is returned when the trimmed content exceeds the limit
	ErrContentTooLong = errors.New("leads: content too long")

	// ErrMalformedOutput is returned when provider output is not a JSON object
	ErrMalformedOutput = errors.New("leads: provider output is not a JSON object")

	// ErrSchemaMismatch is returned when provider output does not match the lead record schema
	ErrSchemaMismatch = errors.New("leads: provider output does not match lead schema")
)

// ValidationError is a caller-input problem detected before any provider call.
// Message is safe to return to the caller verbatim.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func newNoContentError() error {
	return &ValidationError{Err: ErrNoContent, Message: "No content provided"}
}

func newContentTooLongError(maxChars int) error {
	return &ValidationError{
		Err:     ErrContentTooLong,
		Message: fmt.Sprintf("Content too long. Maximum %d characters.", maxChars),
	}
}

// Upstream operations reported in UpstreamError.Op.
const (
	OpComplete = "complete"
	OpParse    = "parse"
	OpSchema   = "schema"
)

// UpstreamError wraps a provider failure or unusable provider output.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("leads: upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
