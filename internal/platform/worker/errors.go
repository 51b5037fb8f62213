package worker

import "errors"

// ErrProcessPanicked wraps a panic recovered from a ProcessFunc.
var ErrProcessPanicked = errors.New("process panicked")
