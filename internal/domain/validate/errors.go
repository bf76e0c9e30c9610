package validate

import "errors"

// Sentinel kinds for validation errors.
var (
	// ErrNoValidRecords marks a batch with nothing left after filtering.
	ErrNoValidRecords = errors.New("no valid records in batch")
)
