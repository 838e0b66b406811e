// Package sim bridges kinematic bodies to the dynamo solver. A World builds
// one BodyAdapter per body, drives the actuate, collide, integrate and
// extract cycle of every step and resolves contacts, including the
// anisotropic friction of tracked and mecanum wheel links.
package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/collision"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/device"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/integrators"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/sirupsen/logrus"
)

const DefaultTimeStep = 0.001

// World owns one solver world and the adapters of every simulated body. It
// must be driven from a single goroutine; separate Worlds are independent.
type World struct {
	// SelfCollision lets links of one body collide with each other when
	// an external collision detector is used.
	SelfCollision bool

	cfg      *config.Simulator
	log      *logrus.Entry
	timeStep float64
	basis    basis

	detector collision.Detector
	devices  *device.Registry

	world    *dynamo.World
	space    *collide.HashSpace
	stepper  dynamo.Stepper
	contacts *ContactResolver
	bodies   []*BodyAdapter

	// geometryLinks maps external detector ids to link adapters.
	geometryLinks []*LinkAdapter

	time          float64
	steps         int
	physicsTime   time.Duration
	collisionTime time.Duration
}

// NewWorld returns a world using a copy of cfg. A nil log uses the
// standard logger.
func NewWorld(cfg *config.Simulator, timeStep float64, log *logrus.Logger) *World {
	if cfg == nil {
		cfg = config.DefaultSimulator()
	}
	if timeStep <= 0 {
		timeStep = DefaultTimeStep
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &World{
		cfg:      cfg.Clone(),
		log:      log.WithField("world", "dynamo"),
		timeStep: timeStep,
	}
}

// SetDevices installs the device modules consulted during collision and
// after every step. It takes effect at the next Initialize.
func (w *World) SetDevices(r *device.Registry) { w.devices = r }

func (w *World) Devices() *device.Registry { return w.devices }

// SetCollisionDetector sets the detector used when the configuration
// selects the external collision path. Without one a
// collision.NarrowPhase is created on Initialize.
func (w *World) SetCollisionDetector(d collision.Detector) { w.detector = d }

func (w *World) CollisionDetector() collision.Detector { return w.detector }

func (w *World) Config() *config.Simulator { return w.cfg }

func (w *World) TimeStep() float64 { return w.timeStep }

func (w *World) Time() float64 { return w.time }

func (w *World) Steps() int { return w.steps }

// Solver returns the underlying solver world, nil before Initialize.
func (w *World) Solver() *dynamo.World { return w.world }

func (w *World) Bodies() []*BodyAdapter { return w.bodies }

// Flipped reports whether the solver uses the 2D basis.
func (w *World) Flipped() bool { return w.basis.flipped }

func (w *World) Contacts() *ContactResolver { return w.contacts }

// Timing returns the time spent stepping the solver and detecting
// collisions since Initialize.
func (w *World) Timing() (physics, detection time.Duration) {
	return w.physicsTime, w.collisionTime
}

// Initialize rebuilds the solver world from bodies. It reports false when
// the configuration cannot be used.
func (w *World) Initialize(bodies []*kin.Body) bool {
	w.Clear()

	if err := w.cfg.Validate(); err != nil {
		w.log.WithError(err).Error("invalid simulator configuration")
		return false
	}
	stepper, err := integrators.New(w.cfg.StepMode, integrators.Settings{
		Iterations:     w.cfg.NumIterations,
		OverRelaxation: w.cfg.OverRelaxation,
	})
	if err != nil {
		w.log.WithError(err).Error("no stepper")
		return false
	}
	w.stepper = stepper
	w.basis = basisFor(w.cfg.Mode2D)

	w.world = dynamo.NewWorld()
	w.world.SetGravity(w.basis.vecToSolver(w.cfg.Gravity))
	if w.cfg.UseWorldCollision {
		if w.detector == nil {
			w.detector = collision.NewNarrowPhase()
		}
		w.detector.ClearGeometries()
	} else {
		w.space = collide.NewHashSpace(nil)
	}
	w.world.SetRandomSeed(0)
	w.world.SetERP(w.cfg.GlobalERP)
	w.world.SetCFM(w.cfg.GlobalCFM.Value())
	w.world.SetContactSurfaceLayer(w.cfg.SurfaceLayerDepth)
	w.world.SetContactMaxCorrectingVel(w.cfg.CorrectingVelCap())

	w.contacts = newContactResolver(w.world, w.basis, w.cfg.Friction, w.devices)
	if w.devices != nil {
		w.devices.Reset()
	}

	for _, b := range bodies {
		w.AddBody(b)
	}
	if w.cfg.UseWorldCollision {
		w.detector.MakeReady()
	}

	w.time = 0
	w.steps = 0
	w.physicsTime = 0
	w.collisionTime = 0

	w.log.WithFields(logrus.Fields{
		"bodies":   len(w.bodies),
		"stepMode": w.cfg.StepMode,
		"2D":       w.cfg.Mode2D,
	}).Debug("initialized")
	return true
}

// InitializeThread prepares solver scratch space for the calling goroutine.
func (w *World) InitializeThread() {
	if w.world != nil {
		w.world.InitializeThread()
	}
}

// AddBody resets the body's velocities and joint commands, builds its
// adapters and hands its solver bodies to the device modules. It panics
// with ErrNotInitialized outside an initialized world.
func (w *World) AddBody(body *kin.Body) *BodyAdapter {
	if w.world == nil {
		panic(ErrNotInitialized)
	}
	log := w.log.WithField("body", body.Name)

	if root := body.RootLink(); root != nil {
		root.V = mgl64.Vec3{}
		root.Dv = mgl64.Vec3{}
		root.W = mgl64.Vec3{}
		root.Dw = mgl64.Vec3{}
	} else {
		log.Warn("body has no links; skipped")
		return nil
	}
	for i := 0; i < body.NumJoints(); i++ {
		if j := body.Joint(i); j != nil {
			j.U = 0
			j.Dq = 0
			j.Ddq = 0
		}
	}
	body.ClearExternalForces()
	body.CalcForwardKinematics(true, true)

	ba := NewBodyAdapter(body)
	ba.createBody(w)

	for link, angle := range mecanumSettings(body, log) {
		if a := ba.Link(link.Index()); a != nil && a.body != nil {
			w.contacts.barrels[a.body] = angle
		}
	}
	if w.devices != nil {
		for _, a := range ba.links {
			if a.body != nil {
				w.devices.Attach(a.body, a.link)
			}
		}
	}

	w.bodies = append(w.bodies, ba)
	return ba
}

func (w *World) setGeometryLink(id int, a *LinkAdapter) {
	for len(w.geometryLinks) <= id {
		w.geometryLinks = append(w.geometryLinks, nil)
	}
	w.geometryLinks[id] = a
}

func (w *World) geometryLink(id int) *LinkAdapter {
	if id < 0 || id >= len(w.geometryLinks) {
		return nil
	}
	return w.geometryLinks[id]
}

// Step advances the world by one time step for the active bodies. Static
// bodies in active are neither actuated nor read back. It always reports
// true.
func (w *World) Step(active []*BodyAdapter) bool {
	if w.world == nil {
		panic(ErrNotInitialized)
	}
	for _, ba := range active {
		ba.body.SetVirtualJointForces()
		if ba.IsStatic() {
			continue
		}
		if w.cfg.VelocityMode {
			ba.setVelocity()
		} else {
			ba.setTorque()
		}
	}

	start := time.Now()
	w.contacts.clear()
	w.collide(active)
	w.world.Step(w.timeStep, w.stepper)
	w.physicsTime += time.Since(start)

	w.time += w.timeStep
	w.steps++
	if w.devices != nil {
		w.devices.PostStep(w.world, w.time)
	}

	for _, ba := range active {
		if ba.IsStatic() {
			continue
		}
		if w.cfg.Mode2D {
			ba.align2D()
		}
		if len(ba.sensors.ForceSensors()) > 0 {
			ba.updateForceSensors(w.basis)
		}
		ba.pullState(w.basis)
		if ba.sensors.HasGyroOrAccelerationSensors() {
			ba.sensors.UpdateGyroAndAccelerationSensors()
		}
	}
	return true
}

// StepAll steps every body of the world.
func (w *World) StepAll() bool { return w.Step(w.bodies) }

func (w *World) collide(active []*BodyAdapter) {
	start := time.Now()
	defer func() { w.collisionTime += time.Since(start) }()

	if !w.cfg.UseWorldCollision {
		w.space.Collide(w.contacts.Near)
		return
	}
	for _, ba := range active {
		for i, a := range ba.links {
			w.detector.UpdatePosition(ba.geometryID+i, a.link.T())
		}
	}
	w.detector.DetectCollisions(func(p collision.Pair) {
		w.contacts.Pair(w.geometryLink(p.GeometryID[0]), w.geometryLink(p.GeometryID[1]), p.Collisions)
	})
}

// Clear destroys every body, in reverse order of creation, and the solver
// world.
func (w *World) Clear() {
	if w.contacts != nil {
		w.contacts.clear()
	}
	for i := len(w.bodies) - 1; i >= 0; i-- {
		w.bodies[i].destroy()
	}
	w.bodies = nil
	w.geometryLinks = nil
	if w.detector != nil {
		w.detector.ClearGeometries()
	}
	if w.devices != nil {
		w.devices.Reset()
	}
	w.contacts = nil
	w.space = nil
	w.stepper = nil
	w.world = nil
}

// Finalize logs the accumulated timing of the run.
func (w *World) Finalize() {
	w.log.WithFields(logrus.Fields{
		"steps":         w.steps,
		"physicsTime":   w.physicsTime.Seconds(),
		"collisionTime": w.collisionTime.Seconds(),
	}).Info("simulation finished")
}
