package widget

import "errors"

// Errors returned by widget operations.
var (
	// ErrUnknownShape indicates an unsupported 3D shape.
	ErrUnknownShape = errors.New("unknown shape")

	// ErrUnknownMode indicates an unsupported transform mode.
	ErrUnknownMode = errors.New("unknown transform mode")

	// ErrUnknownTool indicates an unsupported drawing tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrObjectNotFound indicates no scene object has the given ID.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoSelection indicates an operation that requires a selected object.
	ErrNoSelection = errors.New("no object selected")

	// ErrInvalidColor indicates a color that is not a #rrggbb hex string.
	ErrInvalidColor = errors.New("invalid color")
)
