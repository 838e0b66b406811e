package sim

import "errors"

var (
	// ErrNotInitialized indicates a step before Initialize.
	ErrNotInitialized = errors.New("sim: world not initialized")

	// ErrStaticBody indicates a state read from a body that has no solver
	// bodies.
	ErrStaticBody = errors.New("sim: static body has no dynamic state")
)
