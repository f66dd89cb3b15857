package queue

import "errors"

// Sentinel errors reported by TryEnqueue.
var (
	ErrClosed = errors.New("analysis queue closed")
	ErrFull   = errors.New("analysis queue full")
)
