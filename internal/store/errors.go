// Package store persists chat records in a single flat JSON document.
package store

import "errors"

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested chat does not exist.
	ErrNotFound = errors.New("chat not found")

	// ErrCorrupt indicates the backing document could not be parsed.
	// The store never repairs or discards a corrupt file on its own.
	ErrCorrupt = errors.New("data file corrupt")
)
