package models

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

func TestPendulumTree(t *testing.T) {
	b := NewPendulum().Body()

	if b.NumLinks() != 2 {
		t.Fatalf("expected 2 links, got %d", b.NumLinks())
	}
	if b.NumJoints() != 1 {
		t.Errorf("expected 1 joint, got %d", b.NumJoints())
	}
	arm := b.Joint(0)
	if arm == nil || arm.JointType != kin.JointRevolute {
		t.Fatalf("expected revolute joint 0, got %v", arm)
	}
	if !b.IsFixedRootModel() || b.IsStaticModel() {
		t.Error("expected a fixed root with a moving arm")
	}
}

func TestPendulumInitialAngle(t *testing.T) {
	p := NewPendulum()
	p.Angle = math.Pi / 2
	b := p.Body()

	arm := b.LinkByName("ARM")
	bob := arm.P.Add(arm.R.Mul3x1(arm.C))
	want := mgl64.Vec3{-p.Length, 0, PivotHeight}
	if !bob.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("expected bob at %v, got %v", want, bob)
	}
}

func TestPendulumDamping(t *testing.T) {
	p := NewPendulum()
	b := p.Body()

	arm := b.Joint(0)
	arm.Dq = 2
	b.SetVirtualJointForces()

	if math.Abs(arm.U-(-p.Damping*2)) > 1e-12 {
		t.Errorf("expected damping torque %f, got %f", -p.Damping*2, arm.U)
	}

	p.Damping = 0
	if NewPendulum().Body().VirtualJointForces == nil {
		t.Error("default pendulum should be damped")
	}
	if p.Body().VirtualJointForces != nil {
		t.Error("undamped pendulum should have no virtual forces")
	}
}
