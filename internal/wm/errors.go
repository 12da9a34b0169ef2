package wm

import "errors"

var (
	// ErrNotFound is returned when a referenced window, monitor or layout
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for values rejected at the boundary,
	// such as an unknown layout name or lever mode.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInconsistentState marks a model inconsistency. Operations that hit
	// one are skipped and the prior state is kept.
	ErrInconsistentState = errors.New("inconsistent state")
)
