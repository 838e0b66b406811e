package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

// MecanumWheelSettingKey mirrors the body info key read by the simulator.
const MecanumWheelSettingKey = "mecanumWheelSetting"

// Crawler is a box chassis riding on two tracks. The U of a track link, or
// its Dq for a pseudo continuous track, is the surface speed along x.
type Crawler struct {
	Mass      float64
	TrackType kin.JointType
	// Height is the chassis center height; the tracks touch z=0 there.
	Height float64
}

func NewCrawler() *Crawler {
	return &Crawler{Mass: 5, TrackType: kin.JointTracked, Height: 0.15}
}

func (c *Crawler) Body() *kin.Body {
	size := mgl64.Vec3{0.6, 0.4, 0.1}
	chassis := kin.NewLink("CHASSIS")
	chassis.JointType = kin.JointFree
	chassis.M = c.Mass
	chassis.I = BoxInertia(c.Mass, size)
	chassis.Shape = boxShape(size, mgl64.Vec3{})
	place(chassis, mgl64.Vec3{0, 0, c.Height})

	for i, side := range []struct {
		name string
		y    float64
	}{{"TRACK_L", 0.25}, {"TRACK_R", -0.25}} {
		t := kin.NewLink(side.name)
		t.JointType = c.TrackType
		t.JointID = i
		t.JointName = side.name
		t.Axis = mgl64.Vec3{0, 1, 0}
		t.B = mgl64.Vec3{0, side.y, -0.05}
		t.M = 0.5
		trackSize := mgl64.Vec3{0.6, 0.1, 0.2}
		t.I = BoxInertia(t.M, trackSize)
		t.Shape = boxShape(trackSize, mgl64.Vec3{})
		chassis.AppendChild(t)
	}
	return newBody("crawler", chassis)
}

// MecanumRover is a chassis on four wheels whose rollers sit at
// BarrelAngle against the axle, mirrored between neighbouring wheels.
type MecanumRover struct {
	Mass        float64
	BarrelAngle float64
}

const wheelRadius = 0.1

var wheelNames = []string{"WHEEL_FL", "WHEEL_FR", "WHEEL_RL", "WHEEL_RR"}

func NewMecanumRover() *MecanumRover {
	return &MecanumRover{Mass: 4, BarrelAngle: math.Pi / 4}
}

func (m *MecanumRover) Body() *kin.Body {
	size := mgl64.Vec3{0.6, 0.4, 0.08}
	chassis := kin.NewLink("CHASSIS")
	chassis.JointType = kin.JointFree
	chassis.M = m.Mass
	chassis.I = BoxInertia(m.Mass, size)
	chassis.Shape = boxShape(size, mgl64.Vec3{})
	place(chassis, mgl64.Vec3{0, 0, wheelRadius})

	offsets := []mgl64.Vec3{{0.25, 0.3, 0}, {0.25, -0.3, 0}, {-0.25, 0.3, 0}, {-0.25, -0.3, 0}}
	names := make([]any, len(wheelNames))
	angles := make([]any, len(wheelNames))
	for i, name := range wheelNames {
		w := kin.NewLink(name)
		w.JointType = kin.JointTracked
		w.JointID = i
		w.JointName = name
		w.Axis = mgl64.Vec3{0, 1, 0}
		w.B = offsets[i]
		w.M = 0.3
		w.I = CylinderInertia(w.M, wheelRadius, 0.08)
		w.Shape = cylinderShape(wheelRadius, 0.08)
		chassis.AppendChild(w)

		names[i] = name
		// front-left and rear-right share a roller direction
		if i == 0 || i == 3 {
			angles[i] = m.BarrelAngle
		} else {
			angles[i] = -m.BarrelAngle
		}
	}

	b := newBody("mecanum", chassis)
	b.SetInfo(MecanumWheelSettingKey, map[string]any{
		"links":        names,
		"barrelAngles": angles,
	})
	return b
}
