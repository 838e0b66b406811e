package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Feedback receives the forces and torques a joint applied during the last
// step. Torques are about each body's center of mass.
type Feedback struct {
	F1, T1 mgl64.Vec3
	F2, T2 mgl64.Vec3
}

type Joint interface {
	Attach(b1, b2 *Body)
	Bodies() (*Body, *Body)
	SetFeedback(fb *Feedback)
	Feedback() *Feedback
	base() *jointBase
	appendRows(c *rowContext)
}

type jointBase struct {
	world    *World
	index    int
	group    *JointGroup
	b1, b2   *Body
	feedback *Feedback

	rowStart, rowCount int
}

func (j *jointBase) base() *jointBase { return j }

func (j *jointBase) Attach(b1, b2 *Body) {
	j.b1, j.b2 = b1, b2
}

func (j *jointBase) Bodies() (*Body, *Body) { return j.b1, j.b2 }

func (j *jointBase) SetFeedback(fb *Feedback) { j.feedback = fb }

func (j *jointBase) Feedback() *Feedback { return j.feedback }

func (j *jointBase) pose1() (mgl64.Vec3, mgl64.Mat3, mgl64.Quat) {
	if j.b1 == nil {
		return mgl64.Vec3{}, mgl64.Ident3(), mgl64.QuatIdent()
	}
	return j.b1.pos, j.b1.r, j.b1.q
}

func (j *jointBase) pose2() (mgl64.Vec3, mgl64.Mat3, mgl64.Quat) {
	if j.b2 == nil {
		return mgl64.Vec3{}, mgl64.Ident3(), mgl64.QuatIdent()
	}
	return j.b2.pos, j.b2.r, j.b2.q
}

// relQuat is the orientation of body1 expressed in the body2 frame.
func (j *jointBase) relQuat() mgl64.Quat {
	_, _, q1 := j.pose1()
	_, _, q2 := j.pose2()
	return q2.Conjugate().Mul(q1)
}

type Param int

const (
	ParamLoStop Param = iota
	ParamHiStop
	ParamVel
	ParamFMax
	ParamFudgeFactor
)

// limitMotor is the shared stop/motor state of a one-axis joint.
type limitMotor struct {
	lo, hi float64
	vel    float64
	fmax   float64
	fudge  float64
}

func newLimitMotor() limitMotor {
	return limitMotor{lo: math.Inf(-1), hi: math.Inf(1), fudge: 1}
}

func (m *limitMotor) set(p Param, v float64) {
	switch p {
	case ParamLoStop:
		m.lo = v
	case ParamHiStop:
		m.hi = v
	case ParamVel:
		m.vel = v
	case ParamFMax:
		m.fmax = v
	case ParamFudgeFactor:
		m.fudge = v
	}
}

func (m *limitMotor) get(p Param) float64 {
	switch p {
	case ParamLoStop:
		return m.lo
	case ParamHiStop:
		return m.hi
	case ParamVel:
		return m.vel
	case ParamFMax:
		return m.fmax
	case ParamFudgeFactor:
		return m.fudge
	}
	return 0
}

// addRow emits at most one row acting along (l, a) for body1 and the
// negation for body2. Stops are speculative: a stop not yet reached only
// limits the approach speed so the next position lands on it.
func (m *limitMotor) addRow(c *rowContext, j *jointBase, l1, a1, l2, a2 mgl64.Vec3, pos, rate float64) {
	powered := m.fmax > 0
	limited := 0
	var target float64
	if m.lo <= m.hi {
		switch {
		case m.lo > math.Inf(-1) && pos+rate*c.h <= m.lo:
			limited = -1
			target = m.lo
		case m.hi < math.Inf(1) && pos+rate*c.h >= m.hi:
			limited = 1
			target = m.hi
		}
	}
	if limited == 0 && !powered {
		return
	}

	r := c.row(j)
	r.J1L, r.J1A, r.J2L, r.J2A = l1, a1, l2, a2

	if limited != 0 {
		awayFromStop := (limited < 0 && m.vel > 0) || (limited > 0 && m.vel < 0)
		if !powered || !awayFromStop {
			err := target - pos
			violated := (limited < 0 && err > 0) || (limited > 0 && err < 0)
			if violated {
				r.RHS = c.erp * err / c.h
			} else {
				r.RHS = err / c.h
			}
			if limited < 0 {
				r.Lo, r.Hi = 0, math.Inf(1)
			} else {
				r.Lo, r.Hi = math.Inf(-1), 0
			}
			c.push(r)
			return
		}
		r.RHS = m.vel
		r.Lo, r.Hi = -m.fmax*m.fudge, m.fmax*m.fudge
		c.push(r)
		return
	}

	r.RHS = m.vel
	r.Lo, r.Hi = -m.fmax, m.fmax
	c.push(r)
}

// rowContext collects rows while a step is assembled.
type rowContext struct {
	world *World
	h     float64
	erp   float64
	cfm   float64
	rows  []Row
}

func (c *rowContext) row(j *jointBase) Row {
	b1, b2 := -1, -1
	if j.b1 != nil {
		b1 = j.b1.index
	}
	if j.b2 != nil {
		b2 = j.b2.index
	}
	return newRow(b1, b2, c.cfm)
}

func (c *rowContext) push(r Row) int {
	c.rows = append(c.rows, r)
	return len(c.rows) - 1
}

// addPointRows constrains the world points p1 (on body1) and p2 (on
// body2, or fixed in space) to coincide.
func (c *rowContext) addPointRows(j *jointBase, p1, p2 mgl64.Vec3) {
	pos1, _, _ := j.pose1()
	pos2, _, _ := j.pose2()
	r1 := p1.Sub(pos1)
	r2 := p2.Sub(pos2)
	gap := p2.Sub(p1)
	for k := 0; k < 3; k++ {
		var e mgl64.Vec3
		e[k] = 1
		r := c.row(j)
		r.J1L = e
		r.J1A = r1.Cross(e)
		r.J2L = e.Mul(-1)
		r.J2A = r2.Cross(e).Mul(-1)
		r.RHS = c.erp * gap[k] / c.h
		c.push(r)
	}
}

// addLineRows keeps the world point p1 on body1 on the line through p2
// with direction ax, allowing motion along ax only.
func (c *rowContext) addLineRows(j *jointBase, p1, p2, ax mgl64.Vec3) {
	pos1, _, _ := j.pose1()
	pos2, _, _ := j.pose2()
	r1 := p1.Sub(pos1)
	r2 := p1.Sub(pos2)
	gap := p1.Sub(p2)
	u, v := planeSpace(ax)
	for _, d := range [2]mgl64.Vec3{u, v} {
		r := c.row(j)
		r.J1L = d
		r.J1A = r1.Cross(d)
		r.J2L = d.Mul(-1)
		r.J2A = r2.Cross(d).Mul(-1)
		r.RHS = -c.erp * gap.Dot(d) / c.h
		c.push(r)
	}
}

// addRotationRows locks the relative orientation to qrel.
func (c *rowContext) addRotationRows(j *jointBase, qrel mgl64.Quat) {
	_, _, q1 := j.pose1()
	_, _, q2 := j.pose2()
	want := q2.Mul(qrel)
	e := want.Mul(q1.Conjugate())
	if e.W < 0 {
		e = e.Scale(-1)
	}
	errv := e.V.Mul(2)
	for k := 0; k < 3; k++ {
		var a mgl64.Vec3
		a[k] = 1
		r := c.row(j)
		r.J1A = a
		r.J2A = a.Mul(-1)
		r.RHS = c.erp * errv[k] / c.h
		c.push(r)
	}
}

// addAxisRows keeps the body1 axis ax1 parallel to the body2 axis ax2.
func (c *rowContext) addAxisRows(j *jointBase, ax1, ax2 mgl64.Vec3) {
	u, v := planeSpace(ax1)
	errv := ax1.Cross(ax2)
	for _, d := range [2]mgl64.Vec3{u, v} {
		r := c.row(j)
		r.J1A = d
		r.J2A = d.Mul(-1)
		r.RHS = c.erp * errv.Dot(d) / c.h
		c.push(r)
	}
}

// planeSpace returns two unit vectors orthogonal to n and to each other.
func planeSpace(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if math.Abs(n[2]) > 1/math.Sqrt2 {
		a := n[1]*n[1] + n[2]*n[2]
		k := 1 / math.Sqrt(a)
		p := mgl64.Vec3{0, -n[2] * k, n[1] * k}
		q := mgl64.Vec3{a * k, -n[0] * p[2], n[0] * p[1]}
		return p, q
	}
	a := n[0]*n[0] + n[1]*n[1]
	k := 1 / math.Sqrt(a)
	p := mgl64.Vec3{-n[1] * k, n[0] * k, 0}
	q := mgl64.Vec3{-n[2] * p[1], n[2] * p[0], a * k}
	return p, q
}

// PlaneSpace is exported for callers that need the same tangent basis the
// contact rows use.
func PlaneSpace(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	return planeSpace(n.Normalize())
}
