// Package domain defines domain-level errors for the historical feature.
package domain

import "errors"

// Domain errors for historical queries.
// Each query failure returned to callers wraps exactly one of these.
var (
	// ErrInvalidInput indicates malformed dates, frequency or indicator parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRange indicates start after end, or an end date in the future.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotFound indicates that the symbol could not be resolved to an instrument.
	ErrNotFound = errors.New("symbol not found")
)

// QueryError is a validation failure with a user-facing message.
type QueryError struct {
	Kind    error
	Message string
}

func (e *QueryError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *QueryError) Unwrap() error { return e.Kind }

// Code returns the wire code for the error kind.
func (e *QueryError) Code() string {
	switch e.Kind {
	case ErrInvalidInput:
		return "INVALID_INPUT"
	case ErrInvalidRange:
		return "INVALID_RANGE"
	case ErrNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

func newQueryError(kind error, msg string) *QueryError {
	return &QueryError{Kind: kind, Message: msg}
}

// InvalidInput returns a QueryError of kind ErrInvalidInput.
func InvalidInput(msg string) *QueryError { return newQueryError(ErrInvalidInput, msg) }

// InvalidRange returns a QueryError of kind ErrInvalidRange.
func InvalidRange(msg string) *QueryError { return newQueryError(ErrInvalidRange, msg) }

// NotFound returns a QueryError of kind ErrNotFound.
func NotFound(msg string) *QueryError { return newQueryError(ErrNotFound, msg) }
