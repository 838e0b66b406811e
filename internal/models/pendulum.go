package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

// PivotHeight is the height of the fixed base every pendulum hangs from.
const PivotHeight = 2.0

const bobRadius = 0.05

// Pendulum is a single rod swinging about the y axis of a fixed base. The
// bob mass sits at the end of the rod.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	// Angle is the initial joint angle, zero hanging straight down.
	Angle float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    DefaultMass,
		Length:  DefaultLength,
		Damping: 0.1,
	}
}

func (p *Pendulum) Body() *kin.Body {
	base := fixedBase()
	arm := armLink("ARM", 0, mgl64.Vec3{}, p.Mass, p.Length)
	arm.Q = p.Angle
	base.AppendChild(arm)

	b := newBody("pendulum", base)
	b.VirtualJointForces = damping(p.Damping)
	return b
}

func fixedBase() *kin.Link {
	base := kin.NewLink("BASE")
	base.JointType = kin.JointFixed
	base.M = 1
	base.Shape = boxShape(mgl64.Vec3{0.1, 0.1, 0.1}, mgl64.Vec3{})
	place(base, mgl64.Vec3{0, 0, PivotHeight})
	return base
}

// armLink is a revolute link about y whose bob hangs length below the
// joint at b.
func armLink(name string, id int, b mgl64.Vec3, mass, length float64) *kin.Link {
	l := kin.NewLink(name)
	l.JointType = kin.JointRevolute
	l.JointID = id
	l.JointName = name
	l.Axis = mgl64.Vec3{0, 1, 0}
	l.B = b
	l.M = mass
	l.C = mgl64.Vec3{0, 0, -length}
	l.I = SphereInertia(mass, bobRadius)
	l.Shape = sphereAt(bobRadius, l.C)
	return l
}

// damping returns joint forces opposing every joint rate.
func damping(c float64) func(*kin.Body) {
	if c == 0 {
		return nil
	}
	return func(b *kin.Body) {
		for i := 0; i < b.NumJoints(); i++ {
			if j := b.Joint(i); j != nil {
				j.U = -c * j.Dq
			}
		}
	}
}
