package dynamo

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Step advances the world by h seconds. External forces are integrated
// first, then the stepper resolves every joint row as an impulse, and
// finally positions are advanced with the constrained velocities.
// Accumulated forces and torques are cleared afterwards.
func (w *World) Step(h float64, s Stepper) {
	if h <= 0 {
		return
	}
	w.InitializeThread()
	p := &w.problem
	p.H = h
	p.Rand = w.rng
	p.reset(len(w.bodies))

	for i, b := range w.bodies {
		if b.kinematic {
			p.V[i] = b.lvel
			p.W[i] = b.avel
			continue
		}
		invI := b.InvInertiaWorld()
		p.InvMass[i] = b.invMass
		p.InvI[i] = invI
		p.V[i] = b.lvel.Add(w.gravity.Add(b.force.Mul(b.invMass)).Mul(h))
		gyro := b.avel.Cross(b.inertiaWorld().Mul3x1(b.avel))
		p.W[i] = b.avel.Add(invI.Mul3x1(b.torque.Sub(gyro)).Mul(h))
	}

	c := &w.ctx
	c.world = w
	c.h = h
	c.erp = w.erp
	c.cfm = w.cfm
	c.rows = c.rows[:0]
	for _, j := range w.joints {
		jb := j.base()
		jb.rowStart, jb.rowCount = len(c.rows), 0
		if !movable(jb.b1) && !movable(jb.b2) {
			continue
		}
		j.appendRows(c)
		jb.rowCount = len(c.rows) - jb.rowStart
	}
	p.Rows = c.rows
	p.Lambda = resize(p.Lambda, len(p.Rows))

	if len(p.Rows) > 0 {
		s.Solve(p)
	}

	for i := range p.Rows {
		l1, a1, l2, a2 := p.MinvJ(i)
		r := &p.Rows[i]
		lam := p.Lambda[i]
		if r.B1 >= 0 {
			p.V[r.B1] = p.V[r.B1].Add(l1.Mul(lam))
			p.W[r.B1] = p.W[r.B1].Add(a1.Mul(lam))
		}
		if r.B2 >= 0 {
			p.V[r.B2] = p.V[r.B2].Add(l2.Mul(lam))
			p.W[r.B2] = p.W[r.B2].Add(a2.Mul(lam))
		}
	}

	for _, j := range w.joints {
		jb := j.base()
		if jb.feedback == nil {
			continue
		}
		fb := Feedback{}
		for i := jb.rowStart; i < jb.rowStart+jb.rowCount; i++ {
			r := &p.Rows[i]
			f := p.Lambda[i] / h
			fb.F1 = fb.F1.Add(r.J1L.Mul(f))
			fb.T1 = fb.T1.Add(r.J1A.Mul(f))
			fb.F2 = fb.F2.Add(r.J2L.Mul(f))
			fb.T2 = fb.T2.Add(r.J2A.Mul(f))
		}
		*jb.feedback = fb
	}

	for i, b := range w.bodies {
		b.lvel = p.V[i]
		b.avel = p.W[i]
		b.pos = b.pos.Add(b.lvel.Mul(h))
		wq := mgl64.Quat{W: 0, V: b.avel}
		dq := wq.Mul(b.q).Scale(0.5 * h)
		b.SetQuaternion(b.q.Add(dq))
		b.force = mgl64.Vec3{}
		b.torque = mgl64.Vec3{}
	}
}

func movable(b *Body) bool {
	return b != nil && !b.kinematic
}
