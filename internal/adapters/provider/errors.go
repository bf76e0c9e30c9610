package provider

import "errors"

// Sentinel kinds for provider errors.
var (
	// ErrFetchFailed covers transport errors, bad statuses, service error
	// codes and malformed payloads uniformly; callers fall back on it.
	ErrFetchFailed = errors.New("remote fetch failed")
)
