// Package catalog holds the shared error values of the listing search core.
package catalog

import "errors"

// Common errors for listing indexing and search operations.
var (
	ErrNotFound         = errors.New("listing not found")
	ErrIneligible       = errors.New("listing is not active")
	ErrIndexUnavailable = errors.New("vector namespace not found")
	ErrInvalidQuery     = errors.New("invalid search query")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
