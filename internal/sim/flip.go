package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/scene"
)

// flippedIdentity maps model coordinates onto the solver basis used in 2D
// mode: solver y = model z, solver z = -model y. The model x-z plane thus
// becomes the solver x-y plane that Plane2D constrains to.
var flippedIdentity = mgl64.Mat3{
	1, 0, 0,
	0, 0, -1,
	0, 1, 0,
}

// basis converts between model and solver coordinates. Body-local frames
// are the link frames in either basis; only world quantities change.
type basis struct {
	m       mgl64.Mat3
	flipped bool
}

func basisFor(flip bool) basis {
	if flip {
		return basis{m: flippedIdentity, flipped: true}
	}
	return basis{m: mgl64.Ident3()}
}

func (b basis) vecToSolver(v mgl64.Vec3) mgl64.Vec3 {
	if !b.flipped {
		return v
	}
	return mgl64.Vec3{v[0], v[2], -v[1]}
}

func (b basis) vecToModel(v mgl64.Vec3) mgl64.Vec3 {
	if !b.flipped {
		return v
	}
	return mgl64.Vec3{v[0], -v[2], v[1]}
}

func (b basis) rotToSolver(r mgl64.Mat3) mgl64.Mat3 {
	if !b.flipped {
		return r
	}
	return b.m.Mul3(r)
}

func (b basis) rotToModel(r mgl64.Mat3) mgl64.Mat3 {
	if !b.flipped {
		return r
	}
	return b.m.Transpose().Mul3(r)
}

// poseToSolver converts a model world transform.
func (b basis) poseToSolver(t mgl64.Mat4) (mgl64.Vec3, mgl64.Mat3) {
	return b.vecToSolver(scene.Translation(t)), b.rotToSolver(scene.Linear(t))
}
