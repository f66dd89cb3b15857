package service

import "errors"

// Sentinel errors returned by Service. Repository errors (not found) are
// passed through wrapped.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("analysis queue is full")
	ErrInvalidNote  = errors.New("invalid note")
)
