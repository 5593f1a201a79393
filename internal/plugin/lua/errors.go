package lua

import "errors"

// Runtime errors.
var (
	// ErrStateClosed is returned when using a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotAFunction is returned when calling a global that is not a function.
	ErrNotAFunction = errors.New("global is not a function")
)
