package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

// NewFloor returns a static slab whose top face is the z=0 plane.
func NewFloor(size float64) *kin.Body {
	root := kin.NewLink("FLOOR")
	root.JointType = kin.JointFixed
	root.M = 1
	root.Shape = boxShape(mgl64.Vec3{size, size, 0.1}, mgl64.Vec3{0, 0, -0.05})
	return newBody("floor", root)
}

// NewBlock returns a free box of the given mass and size centered at p.
func NewBlock(name string, mass float64, size, p mgl64.Vec3) *kin.Body {
	root := kin.NewLink("BLOCK")
	root.JointType = kin.JointFree
	root.M = mass
	root.I = BoxInertia(mass, size)
	root.Shape = boxShape(size, mgl64.Vec3{})
	place(root, p)
	return newBody(name, root)
}

// NewBall returns a free sphere centered at p.
func NewBall(name string, mass, radius float64, p mgl64.Vec3) *kin.Body {
	root := kin.NewLink("BALL")
	root.JointType = kin.JointFree
	root.M = mass
	root.I = SphereInertia(mass, radius)
	root.Shape = sphereShape(radius)
	place(root, p)
	return newBody(name, root)
}
