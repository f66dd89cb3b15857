package worker

import "errors"

// ErrStopped reports an analysis abandoned because the worker shut down.
var ErrStopped = errors.New("worker stopped")
