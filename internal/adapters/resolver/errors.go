package resolver

import "errors"

// Sentinel kinds for resolution errors.
var (
	// ErrNoDataAvailable marks the only unrecoverable outcome of a run:
	// no remote data and no usable cache.
	ErrNoDataAvailable = errors.New("no data available")
)
