package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/collision"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/sensor"
	"github.com/sirupsen/logrus"
)

// BodyAdapter mirrors one kinematic body in the solver. links is index
// aligned with the body's links.
type BodyAdapter struct {
	body  *kin.Body
	links []*LinkAdapter

	// world is nil for a static model, which only gets geometry.
	world *dynamo.World
	space *collide.HashSpace

	extraJoints    []dynamo.Joint
	plane          *dynamo.Plane2D
	sensors        sensor.Helper
	forceFeedbacks []dynamo.Feedback

	// geometryID is the collision service id of link 0 when the world
	// uses an external detector.
	geometryID int
}

func NewBodyAdapter(body *kin.Body) *BodyAdapter {
	return &BodyAdapter{body: body, geometryID: -1}
}

func (ba *BodyAdapter) Body() *kin.Body { return ba.body }

func (ba *BodyAdapter) Links() []*LinkAdapter { return ba.links }

// Link returns the adapter of link i.
func (ba *BodyAdapter) Link(i int) *LinkAdapter {
	if i < 0 || i >= len(ba.links) {
		return nil
	}
	return ba.links[i]
}

func (ba *BodyAdapter) IsStatic() bool { return ba.world == nil }

func (ba *BodyAdapter) Space() collide.Space {
	if ba.space == nil {
		return nil
	}
	return ba.space
}

func (ba *BodyAdapter) Sensors() *sensor.Helper { return &ba.sensors }

func (ba *BodyAdapter) createBody(w *World) {
	log := w.log.WithField("body", ba.body.Name)
	if ba.body.IsStaticModel() {
		ba.world = nil
	} else {
		ba.world = w.world
	}
	if w.cfg.UseWorldCollision {
		ba.geometryID = collision.AddBody(w.detector, ba.body, w.SelfCollision)
	} else {
		ba.space = collide.NewHashSpace(w.space)
	}

	root := ba.body.RootLink()
	newLinkAdapter(w, ba, root, nil, mgl64.Vec3{})
	ba.pushState(w.basis)

	if w.cfg.UseWorldCollision {
		for i, a := range ba.links {
			id := ba.geometryID + i
			w.setGeometryLink(id, a)
			w.detector.UpdatePosition(id, a.link.T())
		}
	}

	ba.setExtraJoints(w.basis, log)

	if w.cfg.Mode2D && ba.world != nil {
		if b := ba.links[0].body; b != nil {
			ba.plane = ba.world.CreatePlane2D(nil)
			ba.plane.Attach(b, nil)
		}
	}

	if ba.world != nil {
		if w.cfg.VelocityMode {
			ba.setVelocity()
		} else {
			ba.setTorque()
		}
	}

	ba.sensors.Initialize(ba.body, w.timeStep, w.cfg.Gravity)
	ba.setForceFeedbacks(log)
}

func (ba *BodyAdapter) setExtraJoints(b basis, log *logrus.Entry) {
	if ba.world == nil {
		return
	}
	for _, ej := range ba.body.ExtraJoints() {
		var pair [2]*LinkAdapter
		for i, l := range ej.Links {
			if l == nil {
				continue
			}
			if a := ba.Link(l.Index()); a != nil && a.link == l {
				pair[i] = a
			}
		}
		if pair[0] == nil || pair[1] == nil {
			log.WithField("type", ej.Type).Warn("extra joint link has no adapter; skipped")
			continue
		}
		l0 := pair[0].link
		p := b.vecToSolver(l0.Attitude().Mul3x1(ej.Points[0]).Add(l0.P))
		axis := b.vecToSolver(l0.Attitude().Mul3x1(ej.Axis))

		switch ej.Type {
		case kin.ExtraJointPiston:
			j := ba.world.CreatePiston(nil)
			j.Attach(pair[0].body, pair[1].body)
			j.SetAnchor(p)
			j.SetAxis(axis)
			ba.extraJoints = append(ba.extraJoints, j)
		case kin.ExtraJointBall:
			j := ba.world.CreateBall(nil)
			j.Attach(pair[0].body, pair[1].body)
			j.SetAnchor(p)
			ba.extraJoints = append(ba.extraJoints, j)
		}
	}
}

// setForceFeedbacks wires one feedback buffer per force sensor to the joint
// of the sensor's link.
func (ba *BodyAdapter) setForceFeedbacks(log *logrus.Entry) {
	sensors := ba.sensors.ForceSensors()
	ba.forceFeedbacks = make([]dynamo.Feedback, len(sensors))
	for i, s := range sensors {
		a := ba.Link(s.Link().Index())
		if a == nil || a.Joint() == nil {
			log.WithFields(logrus.Fields{"sensor": s.Name(), "link": s.Link().Name()}).
				Warn("force sensor link has no joint")
			continue
		}
		a.Joint().SetFeedback(&ba.forceFeedbacks[i])
	}
}

// pushState transfers the kinematic state of every link into the solver.
func (ba *BodyAdapter) pushState(b basis) {
	for _, a := range ba.links {
		a.pushState(b)
	}
}

// pullState transfers the solver state back into every link. It panics
// with ErrStaticBody on a static model.
func (ba *BodyAdapter) pullState(b basis) {
	if ba.world == nil {
		panic(ErrStaticBody)
	}
	for _, a := range ba.links {
		a.pullState(b)
	}
}

// setTorque applies the commanded joint torques. The root link has no
// actuated joint.
func (ba *BodyAdapter) setTorque() {
	for _, a := range ba.links[1:] {
		a.setTorque()
	}
}

func (ba *BodyAdapter) setVelocity() {
	for _, a := range ba.links[1:] {
		a.setVelocity()
	}
}

// updateForceSensors converts the reactions of the last step into the
// sensor frames. The reaction is the one acting on the parent side.
func (ba *BodyAdapter) updateForceSensors(b basis) {
	for i := range ba.sensors.ForceSensors() {
		fb := &ba.forceFeedbacks[i]
		ba.sensors.SetForceSensorReaction(i, b.vecToModel(fb.F2), b.vecToModel(fb.T2))
	}
}

func (ba *BodyAdapter) align2D() {
	if len(ba.links) == 0 || ba.links[0].body == nil {
		return
	}
	align2D(ba.links[0].body)
}

// destroy removes every solver object of the body in reverse order of
// construction.
func (ba *BodyAdapter) destroy() {
	if ba.world != nil {
		if ba.plane != nil {
			ba.world.DestroyJoint(ba.plane)
		}
		for i := len(ba.extraJoints) - 1; i >= 0; i-- {
			ba.world.DestroyJoint(ba.extraJoints[i])
		}
		for i := len(ba.links) - 1; i >= 0; i-- {
			a := ba.links[i]
			if j := a.Joint(); j != nil {
				ba.world.DestroyJoint(j)
			}
			if a.body != nil {
				ba.world.DestroyBody(a.body)
			}
		}
	}
	if ba.space != nil {
		if parent := ba.space.Space(); parent != nil {
			parent.Remove(ba.space)
		}
	}
	ba.plane = nil
	ba.extraJoints = nil
	ba.links = nil
	ba.world = nil
	ba.space = nil
}
