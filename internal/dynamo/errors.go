package dynamo

import "errors"

var (
	// ErrInvalidMass indicates a non-positive mass or a singular inertia.
	ErrInvalidMass = errors.New("dynamo: invalid mass parameters")

	// ErrForeignBody indicates a body created by another world.
	ErrForeignBody = errors.New("dynamo: body belongs to another world")

	// ErrUnstable indicates a body state containing NaN or Inf.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")
)
