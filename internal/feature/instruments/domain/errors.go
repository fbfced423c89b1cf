// Package domain defines domain-level errors for the instruments feature.
package domain

import "errors"

var (
	// ErrInstrumentNotFound indicates that no instrument matches the symbol on the configured exchange.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrInvalidQuery indicates an empty or malformed search query.
	ErrInvalidQuery = errors.New("invalid search query")
)
