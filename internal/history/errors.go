package history

import "errors"

// Errors returned by history configuration.
var (
	// ErrInvalidMaxSteps indicates a non-positive history bound.
	ErrInvalidMaxSteps = errors.New("max steps must be positive")
)
