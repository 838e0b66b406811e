package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/collision"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/scene"
	"github.com/sirupsen/logrus"
)

// jointDriver is the solver side of one link joint.
type jointDriver interface {
	joint() dynamo.Joint
	setTorque(u float64)
	setVelocity(dq float64)
	// state returns the joint displacement and rate; ok is false for
	// joints without a degree of freedom.
	state() (q, dq float64, ok bool)
}

type hingeDriver struct{ *dynamo.Hinge }

func (d hingeDriver) joint() dynamo.Joint    { return d.Hinge }
func (d hingeDriver) setTorque(u float64)    { d.AddTorque(u) }
func (d hingeDriver) setVelocity(dq float64) { d.SetParam(dynamo.ParamVel, dq) }
func (d hingeDriver) state() (float64, float64, bool) {
	return d.Angle(), d.AngleRate(), true
}

type sliderDriver struct{ *dynamo.Slider }

func (d sliderDriver) joint() dynamo.Joint    { return d.Slider }
func (d sliderDriver) setTorque(u float64)    { d.AddForce(u) }
func (d sliderDriver) setVelocity(dq float64) { d.SetParam(dynamo.ParamVel, dq) }
func (d sliderDriver) state() (float64, float64, bool) {
	return d.Position(), d.PositionRate(), true
}

type weldDriver struct{ *dynamo.Fixed }

func (d weldDriver) joint() dynamo.Joint           { return d.Fixed }
func (weldDriver) setTorque(float64)               {}
func (weldDriver) setVelocity(float64)             {}
func (weldDriver) state() (float64, float64, bool) { return 0, 0, false }

type axisParams interface {
	SetParam(p dynamo.Param, v float64)
}

// LinkAdapter is the solver counterpart of one link: an optional body, an
// optional joint to the parent body and the collision geoms of the link
// shape.
type LinkAdapter struct {
	link   *kin.Link
	body   *dynamo.Body
	driver jointDriver
	geoms  []collide.Geom
	// offsets place each geom in the link's center-of-mass frame. They are
	// only kept for links without a body, whose geoms are posed directly.
	offsets []mgl64.Mat4
}

// newLinkAdapter creates the adapter for link and, recursively, for its
// subtree. origin is the zero-configuration origin of the parent link in
// model coordinates.
func newLinkAdapter(w *World, ba *BodyAdapter, link *kin.Link, parent *LinkAdapter, origin mgl64.Vec3) *LinkAdapter {
	a := &LinkAdapter{link: link}
	ba.links = append(ba.links, a)

	o := origin.Add(link.B)
	if ba.world != nil {
		a.createBody(w, parent, o)
	}
	if !w.cfg.UseWorldCollision {
		a.createGeometry(ba)
	}
	for _, c := range link.Children() {
		newLinkAdapter(w, ba, c, a, o)
	}
	return a
}

func (a *LinkAdapter) createBody(w *World, parent *LinkAdapter, o mgl64.Vec3) {
	link := a.link
	b := w.basis
	world := w.world

	a.body = world.CreateBody()
	a.body.SetData(a)

	axis := link.A()
	armature := outer(axis, axis).Mul(link.Jm2)
	mass := dynamo.Mass{M: link.M, I: link.I.Add(armature)}
	if err := a.body.SetMass(mass); err != nil {
		w.log.WithFields(logrus.Fields{"body": link.Body().Name, "link": link.Name()}).
			WithError(err).Warn("keeping unit mass")
	}

	a.body.SetPosition(b.vecToSolver(o.Add(link.C)))
	a.body.SetRotation(b.m)

	var parentBody *dynamo.Body
	if parent != nil {
		parentBody = parent.body
	}

	switch link.JointType {
	case kin.JointRevolute:
		h := world.CreateHinge(nil)
		h.Attach(a.body, parentBody)
		h.SetAnchor(b.vecToSolver(o))
		h.SetAxis(b.vecToSolver(axis))
		a.configureAxis(h, w)
		a.driver = hingeDriver{h}

	case kin.JointPrismatic:
		s := world.CreateSlider(nil)
		s.Attach(a.body, parentBody)
		s.SetAxis(b.vecToSolver(link.D()))
		a.configureAxis(s, w)
		a.driver = sliderDriver{s}

	case kin.JointFree:

	default:
		if parentBody == nil {
			a.body.SetKinematic()
			break
		}
		f := world.CreateFixed(nil)
		f.Attach(a.body, parentBody)
		f.Set()
		a.driver = weldDriver{f}
		if link.JointType.IsTracked() {
			w.contacts.crawlers.Set(a.body, link)
		}
	}
}

func (a *LinkAdapter) configureAxis(j axisParams, w *World) {
	link := a.link
	if w.cfg.JointLimitMode {
		if link.QUpper < math.MaxFloat64 {
			j.SetParam(dynamo.ParamHiStop, link.QUpper)
		}
		if link.QLower > -math.MaxFloat64 {
			j.SetParam(dynamo.ParamLoStop, link.QLower)
		}
	}
	if w.cfg.VelocityMode {
		j.SetParam(dynamo.ParamFMax, math.MaxFloat64)
		j.SetParam(dynamo.ParamFudgeFactor, 1)
	}
}

// createGeometry adds the link shape to the body space. Geom offsets are
// relative to the center of mass, which is the body origin.
func (a *LinkAdapter) createGeometry(ba *BodyAdapter) {
	if a.link.Shape == nil {
		return
	}
	c := a.link.C
	toCoM := mgl64.Translate3D(-c[0], -c[1], -c[2])
	dec := collision.Decompose(a.link.Shape, c)

	for _, p := range dec.Parts {
		a.addGeom(ba, p.Geom, toCoM.Mul4(p.Local))
	}
	if dec.Mesh != nil {
		m, err := collide.NewTriMesh(dec.Mesh)
		if err != nil {
			return
		}
		a.addGeom(ba, m, mgl64.Ident4())
	}
}

func (a *LinkAdapter) addGeom(ba *BodyAdapter, g collide.Geom, offset mgl64.Mat4) {
	p, ok := g.(collide.Placeable)
	if !ok {
		return
	}
	if a.body != nil {
		p.SetBody(a.body)
		p.SetOffsetPosition(scene.Translation(offset))
		p.SetOffsetRotation(scene.Linear(offset))
	} else {
		a.offsets = append(a.offsets, offset)
	}
	p.SetData(a)
	ba.space.Add(p)
	a.geoms = append(a.geoms, p)
}

// OriginLinkIndex is the index of the link this adapter mirrors.
func (a *LinkAdapter) OriginLinkIndex() int { return a.link.Index() }

func (a *LinkAdapter) Link() *kin.Link { return a.link }

// Body is nil for links of a static model.
func (a *LinkAdapter) Body() *dynamo.Body { return a.body }

// Joint is nil for free links, kinematic roots and static models.
func (a *LinkAdapter) Joint() dynamo.Joint {
	if a.driver == nil {
		return nil
	}
	return a.driver.joint()
}

func (a *LinkAdapter) Geoms() []collide.Geom { return a.geoms }

// pushState writes the link pose and velocity into the solver.
func (a *LinkAdapter) pushState(b basis) {
	link := a.link
	if a.body == nil {
		t := link.T().Mul4(mgl64.Translate3D(link.C[0], link.C[1], link.C[2]))
		for i, g := range a.geoms {
			p, r := b.poseToSolver(t.Mul4(a.offsets[i]))
			pl := g.(collide.Placeable)
			pl.SetPosition(p)
			pl.SetRotation(r)
		}
		return
	}
	lc := link.R.Mul3x1(link.C)
	a.body.SetRotation(b.rotToSolver(link.R))
	a.body.SetPosition(b.vecToSolver(link.P.Add(lc)))
	a.body.SetLinearVel(b.vecToSolver(link.V.Add(link.W.Cross(lc))))
	a.body.SetAngularVel(b.vecToSolver(link.W))
}

// pullState is the inverse of pushState. It panics with ErrStaticBody for a
// link without a body.
func (a *LinkAdapter) pullState(b basis) {
	if a.body == nil {
		panic(ErrStaticBody)
	}
	link := a.link
	if a.driver != nil {
		if q, dq, ok := a.driver.state(); ok {
			link.Q = q
			link.Dq = dq
		}
	}
	r := b.rotToModel(a.body.Rotation())
	lc := r.Mul3x1(link.C)
	w := b.vecToModel(a.body.AngularVel())
	link.R = r
	link.P = b.vecToModel(a.body.Position()).Sub(lc)
	link.W = w
	link.V = b.vecToModel(a.body.LinearVel()).Sub(w.Cross(lc))
}

func (a *LinkAdapter) setTorque() {
	if a.driver != nil {
		a.driver.setTorque(a.link.U)
	}
}

func (a *LinkAdapter) setVelocity() {
	if a.driver != nil {
		a.driver.setVelocity(a.link.Dq)
	}
}

func outer(u, v mgl64.Vec3) mgl64.Mat3 {
	var m mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, u[i]*v[j])
		}
	}
	return m
}
