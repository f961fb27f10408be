package task

import "errors"

// Configuration errors are returned at construction time, never from a runner.
var (
	ErrInvalidSpec        = errors.New("invalid task spec")
	ErrInvalidSchema      = errors.New("invalid task schema")
	ErrEmptyPipe          = errors.New("pipe requires at least one stage")
	ErrIncompatibleStages = errors.New("incompatible pipe stages")
)

// ErrPanic wraps a panic recovered from an implementation or transform.
var ErrPanic = errors.New("task panicked")
