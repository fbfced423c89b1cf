// Package domain defines domain-level errors for the quotes feature.
package domain

import "errors"

var (
	// ErrInvalidInput indicates a malformed request parameter such as depth.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that the symbol could not be resolved to an instrument.
	ErrNotFound = errors.New("symbol not found")

	// ErrQuoteUnavailable indicates that the upstream returned no quote for the instrument.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)
