package service

import "errors"

// Sentinel kinds for pipeline service errors.
var (
	ErrNoSchedule     = errors.New("no run interval configured")
	ErrAlreadyStarted = errors.New("service already started")
)
