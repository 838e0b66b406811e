// Package models builds the kinematic bodies used by the scenarios: static
// floors, free blocks, pendulums, tracked and mecanum vehicles and a tool
// arm carrying a vacuum gripper and a nail driver.
package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/scene"
)

const (
	DefaultMass   = 1.0
	DefaultLength = 1.0
)

var gen = scene.NewMeshGenerator()

// BoxInertia is the inertia of a solid box of mass m about its center.
func BoxInertia(m float64, size mgl64.Vec3) mgl64.Mat3 {
	x2, y2, z2 := size[0]*size[0], size[1]*size[1], size[2]*size[2]
	return mgl64.Diag3(mgl64.Vec3{m * (y2 + z2) / 12, m * (x2 + z2) / 12, m * (x2 + y2) / 12})
}

func SphereInertia(m, r float64) mgl64.Mat3 {
	i := 0.4 * m * r * r
	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

// CylinderInertia is for a cylinder along the link y axis.
func CylinderInertia(m, r, h float64) mgl64.Mat3 {
	side := m * (3*r*r + h*h) / 12
	return mgl64.Diag3(mgl64.Vec3{side, m * r * r / 2, side})
}

func boxShape(size mgl64.Vec3, at mgl64.Vec3) scene.Node {
	return scene.NewTranslation(at, scene.NewShape(gen.Box(size)))
}

func sphereShape(r float64) scene.Node {
	return scene.NewShape(gen.Sphere(r))
}

func sphereAt(r float64, at mgl64.Vec3) scene.Node {
	return scene.NewTranslation(at, sphereShape(r))
}

// cylinderShape is aligned with the link y axis.
func cylinderShape(r, h float64) scene.Node {
	return scene.NewShape(gen.Cylinder(r, h))
}

func newBody(name string, root *kin.Link) *kin.Body {
	b := kin.NewBody(name)
	b.SetRootLink(root)
	b.CalcForwardKinematics(false, false)
	return b
}

// place sets the root pose of a body built at the origin.
func place(root *kin.Link, p mgl64.Vec3) {
	root.B = p
	root.P = p
}
