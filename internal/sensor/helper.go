// Package sensor refreshes the force, rate gyro and acceleration sensors of
// a body from its link state after each step.
package sensor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

type accelState struct {
	sensor *kin.AccelerationSensor
	prevV  mgl64.Vec3
}

// Helper holds the sensors of one body. Gravity is expressed in the model
// frame.
type Helper struct {
	forceSensors []*kin.ForceSensor
	gyros        []*kin.RateGyro
	accels       []accelState
	timeStep     float64
	gravity      mgl64.Vec3
	active       bool
}

func (h *Helper) Initialize(body *kin.Body, timeStep float64, gravity mgl64.Vec3) {
	h.forceSensors = kin.DevicesOf[*kin.ForceSensor](body)
	h.gyros = kin.DevicesOf[*kin.RateGyro](body)
	h.accels = h.accels[:0]
	for _, s := range kin.DevicesOf[*kin.AccelerationSensor](body) {
		h.accels = append(h.accels, accelState{sensor: s, prevV: pointVelocity(s.Link(), s.PLocal)})
	}
	h.timeStep = timeStep
	h.gravity = gravity
	h.active = len(h.forceSensors) > 0 || len(h.gyros) > 0 || len(h.accels) > 0
}

func (h *Helper) IsActive() bool { return h.active }

func (h *Helper) ForceSensors() []*kin.ForceSensor { return h.forceSensors }

func (h *Helper) HasGyroOrAccelerationSensors() bool {
	return len(h.gyros) > 0 || len(h.accels) > 0
}

// SetForceSensorReaction stores the joint reaction f, tau acting on the
// sensor's link, given in world coordinates about the link origin, in the
// sensor frame.
func (h *Helper) SetForceSensorReaction(i int, f, tau mgl64.Vec3) {
	s := h.forceSensors[i]
	link := s.Link()
	r := link.R.Mul3(s.RLocal)
	p := link.R.Mul3x1(s.PLocal)
	rt := r.Transpose()
	s.F = rt.Mul3x1(f)
	s.Tau = rt.Mul3x1(tau.Sub(p.Cross(f)))
	s.NotifyStateChange()
}

func (h *Helper) UpdateGyroAndAccelerationSensors() {
	for _, g := range h.gyros {
		link := g.Link()
		g.W = link.R.Mul3(g.RLocal).Transpose().Mul3x1(link.W)
		g.NotifyStateChange()
	}
	if h.timeStep <= 0 {
		return
	}
	for i := range h.accels {
		a := &h.accels[i]
		link := a.sensor.Link()
		v := pointVelocity(link, a.sensor.PLocal)
		dv := v.Sub(a.prevV).Mul(1 / h.timeStep)
		a.prevV = v
		a.sensor.DV = link.R.Mul3(a.sensor.RLocal).Transpose().Mul3x1(dv.Sub(h.gravity))
		a.sensor.NotifyStateChange()
	}
}

func pointVelocity(link *kin.Link, local mgl64.Vec3) mgl64.Vec3 {
	return link.V.Add(link.W.Cross(link.R.Mul3x1(local)))
}
