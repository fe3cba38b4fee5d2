package node

import "errors"

var (
	// ErrConfig covers missing or invalid parameters and files that cannot
	// be opened or created. Construction fails with it.
	ErrConfig = errors.New("node: invalid configuration")
	// ErrUnimplemented marks a kind pair or codec arrangement outside the
	// supported table.
	ErrUnimplemented = errors.New("node: unimplemented")

	ErrNotInitialized     = errors.New("node: not initialized")
	ErrAlreadyInitialized = errors.New("node: already initialized")
	ErrAlreadyFinished    = errors.New("node: finish already delivered")
	ErrFailed             = errors.New("node: failed")

	ErrTypeExists  = errors.New("node: type already registered")
	ErrUnknownType = errors.New("node: unknown type")
)
