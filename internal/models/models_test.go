package models

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

func TestFloorIsStatic(t *testing.T) {
	b := NewFloor(10)
	if !b.IsStaticModel() {
		t.Error("floor should be static")
	}
	if b.RootLink().Shape == nil {
		t.Error("floor should have a shape")
	}
}

func TestBlockPlacement(t *testing.T) {
	p := mgl64.Vec3{1, 2, 3}
	b := NewBlock("crate", 2, mgl64.Vec3{0.2, 0.2, 0.2}, p)

	root := b.RootLink()
	if root.JointType != kin.JointFree {
		t.Errorf("expected free root, got %v", root.JointType)
	}
	if root.P != p {
		t.Errorf("expected root at %v, got %v", p, root.P)
	}
	if math.Abs(root.I.At(0, 0)-2*0.08/12) > 1e-12 {
		t.Errorf("unexpected inertia %v", root.I)
	}
}

func TestCrawlerTracks(t *testing.T) {
	b := NewCrawler().Body()

	if b.NumLinks() != 3 {
		t.Fatalf("expected 3 links, got %d", b.NumLinks())
	}
	for _, name := range []string{"TRACK_L", "TRACK_R"} {
		l := b.LinkByName(name)
		if l == nil {
			t.Fatalf("missing %s", name)
		}
		if !l.JointType.IsTracked() {
			t.Errorf("%s should be tracked, got %v", name, l.JointType)
		}
	}
	if b.IsStaticModel() {
		t.Error("crawler should not be static")
	}
}

func TestMecanumRoverSettings(t *testing.T) {
	m := NewMecanumRover()
	b := m.Body()

	raw, ok := b.Info(MecanumWheelSettingKey)
	if !ok {
		t.Fatal("missing mecanum setting")
	}
	setting := raw.(map[string]any)
	links := setting["links"].([]any)
	angles := setting["barrelAngles"].([]any)
	if len(links) != 4 || len(angles) != 4 {
		t.Fatalf("expected 4 wheels, got %d links and %d angles", len(links), len(angles))
	}
	if angles[0] != m.BarrelAngle || angles[1] != -m.BarrelAngle {
		t.Errorf("unexpected barrel angles %v", angles)
	}
	for _, name := range links {
		if l := b.LinkByName(name.(string)); l == nil || !l.JointType.IsTracked() {
			t.Errorf("wheel %v should be a tracked link", name)
		}
	}
}

func TestToolArmDevices(t *testing.T) {
	a := NewToolArm()
	b := a.Body()

	if n := len(kin.DevicesOf[*kin.VacuumGripper](b)); n != 1 {
		t.Errorf("expected 1 vacuum gripper, got %d", n)
	}
	if n := len(kin.DevicesOf[*kin.NailDriver](b)); n != 1 {
		t.Errorf("expected 1 nail driver, got %d", n)
	}
	fs := kin.DevicesOf[*kin.ForceSensor](b)
	if len(fs) != 1 || fs[0].Link() != b.LinkByName("HAND") {
		t.Fatalf("expected a force sensor on the hand, got %v", fs)
	}
	if got := a.HandBottom(0); math.Abs(got-(a.Height-handHalfHeight)) > 1e-12 {
		t.Errorf("unexpected hand bottom %f", got)
	}
}

func TestBipodFeetMeet(t *testing.T) {
	p := NewBipod()
	b := p.Body()

	if len(b.ExtraJoints()) != 1 {
		t.Fatalf("expected 1 extra joint, got %d", len(b.ExtraJoints()))
	}
	l, r := p.Foot(b, 0), p.Foot(b, 1)
	if !l.ApproxEqualThreshold(r, 1e-9) {
		t.Errorf("feet should coincide, got %v and %v", l, r)
	}
}
