package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

// ToolArm is a fixed gantry with a vertical prismatic hand carrying a
// vacuum gripper, a nail driver and a force sensor on its underside.
type ToolArm struct {
	HandMass float64
	// Height is the joint origin above the floor.
	Height float64
	Stroke float64
}

const (
	VacuumName = "VACUUM"
	NailerName = "NAILER"
	WristName  = "WRIST_FS"
)

const handHalfHeight = 0.025

func NewToolArm() *ToolArm {
	return &ToolArm{HandMass: 0.5, Height: 0.6, Stroke: 0.6}
}

func (a *ToolArm) Body() *kin.Body {
	base := kin.NewLink("BASE")
	base.JointType = kin.JointFixed
	base.M = 1
	base.Shape = boxShape(mgl64.Vec3{0.2, 0.2, 0.05}, mgl64.Vec3{0, 0, 0.05})
	place(base, mgl64.Vec3{0, 0, a.Height})

	hand := kin.NewLink("HAND")
	hand.JointType = kin.JointPrismatic
	hand.JointID = 0
	hand.JointName = "HAND"
	hand.Axis = mgl64.Vec3{0, 0, -1}
	hand.QLower = 0
	hand.QUpper = a.Stroke
	hand.M = a.HandMass
	handSize := mgl64.Vec3{0.1, 0.1, 2 * handHalfHeight}
	hand.I = BoxInertia(a.HandMass, handSize)
	hand.Shape = boxShape(handSize, mgl64.Vec3{})
	base.AppendChild(hand)

	b := newBody("tool_arm", base)
	face := mgl64.Vec3{0, 0, -handHalfHeight}
	vac := kin.NewVacuumGripper(VacuumName, hand)
	vac.PLocal = face
	nail := kin.NewNailDriver(NailerName, hand)
	nail.PLocal = face
	b.AddDevice(vac)
	b.AddDevice(nail)
	b.AddDevice(kin.NewForceSensor(WristName, hand))
	return b
}

// HandBottom is the height of the suction face at joint displacement q.
func (a *ToolArm) HandBottom(q float64) float64 {
	return a.Height - q - handHalfHeight
}

// Bipod is two hinged legs hanging from a fixed base whose feet are closed
// into a loop by an extra joint, leaving a rigid triangle.
type Bipod struct {
	Spread float64
	Depth  float64
	Joint  kin.ExtraJointType
}

func NewBipod() *Bipod {
	return &Bipod{Spread: 0.3, Depth: 0.4, Joint: kin.ExtraJointBall}
}

func (p *Bipod) Body() *kin.Body {
	base := fixedBase()
	var legs [2]*kin.Link
	for i, x := range []float64{-p.Spread, p.Spread} {
		l := kin.NewLink([]string{"LEG_L", "LEG_R"}[i])
		l.JointType = kin.JointRevolute
		l.JointID = i
		l.JointName = l.Name()
		l.Axis = mgl64.Vec3{0, 1, 0}
		l.B = mgl64.Vec3{x, 0, 0}
		l.M = 0.5
		// center of mass halfway to the shared foot
		l.C = mgl64.Vec3{-x / 2, 0, -p.Depth / 2}
		l.I = SphereInertia(l.M, bobRadius)
		l.Shape = sphereAt(bobRadius, l.C)
		base.AppendChild(l)
		legs[i] = l
	}
	b := newBody("bipod", base)
	b.AddExtraJoint(&kin.ExtraJoint{
		Type:   p.Joint,
		Links:  legs,
		Points: [2]mgl64.Vec3{{p.Spread, 0, -p.Depth}, {-p.Spread, 0, -p.Depth}},
		Axis:   mgl64.Vec3{0, 1, 0},
	})
	return b
}

// Foot returns the world position of the foot of leg i.
func (p *Bipod) Foot(b *kin.Body, i int) mgl64.Vec3 {
	l := b.LinkByName([]string{"LEG_L", "LEG_R"}[i])
	x := p.Spread
	if i == 1 {
		x = -x
	}
	return l.P.Add(l.R.Mul3x1(mgl64.Vec3{x, 0, -p.Depth}))
}
