package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrInvalidInput marks a score outside the classifier's contract,
	// e.g. a negative value. Programming error, never recovered.
	ErrInvalidInput = errors.New("score out of contract")
)
