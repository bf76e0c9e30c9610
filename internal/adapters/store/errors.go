package store

import "errors"

// Sentinel kinds for cache store errors.
var (
	// ErrNotFound marks an absent canonical cache file.
	ErrNotFound = errors.New("cache not found")
	// ErrCorruptCache marks a cache file that failed re-validation.
	ErrCorruptCache = errors.New("cache corrupt")
)
