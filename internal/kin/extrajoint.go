package kin

import "github.com/go-gl/mathgl/mgl64"

type ExtraJointType int

const (
	ExtraJointBall ExtraJointType = iota
	ExtraJointPiston
)

func (t ExtraJointType) String() string {
	if t == ExtraJointPiston {
		return "piston"
	}
	return "ball"
}

// ExtraJoint closes a kinematic loop between two links. Points are in the
// respective link frames; Axis is in the frame of Links[0].
type ExtraJoint struct {
	Type   ExtraJointType
	Links  [2]*Link
	Points [2]mgl64.Vec3
	Axis   mgl64.Vec3
}
