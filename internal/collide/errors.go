package collide

import "errors"

var (
	// ErrNoConvergence indicates that penetration depth could not be
	// computed for an overlapping pair.
	ErrNoConvergence = errors.New("collide: penetration query did not converge")

	ErrDegenerateMesh = errors.New("collide: mesh has no triangles")
)
