package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Hinge allows rotation about one axis.
type Hinge struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
	axis1, axis2     mgl64.Vec3
	qrel             mgl64.Quat
	lm               limitMotor
}

func (j *Hinge) Attach(b1, b2 *Body) {
	j.jointBase.Attach(b1, b2)
	j.qrel = j.relQuat()
}

// SetAnchor sets the hinge point in world coordinates.
func (j *Hinge) SetAnchor(p mgl64.Vec3) {
	pos1, r1, _ := j.pose1()
	pos2, r2, _ := j.pose2()
	j.anchor1 = r1.Transpose().Mul3x1(p.Sub(pos1))
	j.anchor2 = r2.Transpose().Mul3x1(p.Sub(pos2))
}

// SetAxis sets the rotation axis in world coordinates.
func (j *Hinge) SetAxis(a mgl64.Vec3) {
	a = a.Normalize()
	_, r1, _ := j.pose1()
	_, r2, _ := j.pose2()
	j.axis1 = r1.Transpose().Mul3x1(a)
	j.axis2 = r2.Transpose().Mul3x1(a)
	j.qrel = j.relQuat()
}

func (j *Hinge) Anchor() mgl64.Vec3 {
	pos1, r1, _ := j.pose1()
	return pos1.Add(r1.Mul3x1(j.anchor1))
}

func (j *Hinge) Axis() mgl64.Vec3 {
	_, r1, _ := j.pose1()
	return r1.Mul3x1(j.axis1)
}

// Angle is the rotation of body1 relative to body2 about the axis, zero at
// the configuration in which the axis was set.
func (j *Hinge) Angle() float64 {
	dq := j.relQuat().Mul(j.qrel.Conjugate())
	th := 2 * math.Atan2(dq.V.Dot(j.axis2), dq.W)
	return wrapAngle(th)
}

func (j *Hinge) AngleRate() float64 {
	ax := j.Axis()
	rate := 0.0
	if j.b1 != nil {
		rate += j.b1.avel.Dot(ax)
	}
	if j.b2 != nil {
		rate -= j.b2.avel.Dot(ax)
	}
	return rate
}

// AddTorque applies t about the axis to body1 and the reaction to body2.
func (j *Hinge) AddTorque(t float64) {
	v := j.Axis().Mul(t)
	if j.b1 != nil {
		j.b1.AddTorque(v)
	}
	if j.b2 != nil {
		j.b2.AddTorque(v.Mul(-1))
	}
}

func (j *Hinge) SetParam(p Param, v float64) { j.lm.set(p, v) }
func (j *Hinge) Param(p Param) float64       { return j.lm.get(p) }

func (j *Hinge) appendRows(c *rowContext) {
	pos2, r2, _ := j.pose2()
	p1 := j.Anchor()
	p2 := pos2.Add(r2.Mul3x1(j.anchor2))
	c.addPointRows(&j.jointBase, p1, p2)

	ax1 := j.Axis()
	ax2 := r2.Mul3x1(j.axis2)
	c.addAxisRows(&j.jointBase, ax1, ax2)

	j.lm.addRow(c, &j.jointBase, mgl64.Vec3{}, ax1, mgl64.Vec3{}, ax1.Mul(-1), j.Angle(), j.AngleRate())
}

// Slider allows translation along one axis.
type Slider struct {
	jointBase
	axis1  mgl64.Vec3
	qrel   mgl64.Quat
	offset mgl64.Vec3
	lm     limitMotor
}

func (j *Slider) Attach(b1, b2 *Body) {
	j.jointBase.Attach(b1, b2)
	j.capture()
}

// SetAxis sets the sliding axis in world coordinates.
func (j *Slider) SetAxis(a mgl64.Vec3) {
	_, r1, _ := j.pose1()
	j.axis1 = r1.Transpose().Mul3x1(a.Normalize())
	j.capture()
}

func (j *Slider) capture() {
	j.qrel = j.relQuat()
	pos1, _, _ := j.pose1()
	if j.b2 != nil {
		j.offset = j.b2.r.Transpose().Mul3x1(pos1.Sub(j.b2.pos))
	} else {
		j.offset = pos1
	}
}

func (j *Slider) Axis() mgl64.Vec3 {
	_, r1, _ := j.pose1()
	return r1.Mul3x1(j.axis1)
}

// anchor is the world point that coincided with body1's origin when the
// axis was set.
func (j *Slider) anchor() mgl64.Vec3 {
	if j.b2 != nil {
		return j.b2.pos.Add(j.b2.r.Mul3x1(j.offset))
	}
	return j.offset
}

func (j *Slider) Position() float64 {
	pos1, _, _ := j.pose1()
	return pos1.Sub(j.anchor()).Dot(j.Axis())
}

func (j *Slider) PositionRate() float64 {
	ax := j.Axis()
	var v1 mgl64.Vec3
	if j.b1 != nil {
		v1 = j.b1.lvel
	}
	if j.b2 == nil {
		return ax.Dot(v1)
	}
	r := j.b1.pos.Sub(j.b2.pos)
	return ax.Dot(v1.Sub(j.b2.lvel).Sub(j.b2.avel.Cross(r)))
}

// AddForce applies f along the axis to body1 and the reaction to body2.
func (j *Slider) AddForce(f float64) {
	v := j.Axis().Mul(f)
	if j.b1 != nil {
		j.b1.AddForce(v)
	}
	if j.b2 != nil {
		j.b2.AddForce(v.Mul(-1))
		if j.b1 != nil {
			ltd := j.b2.pos.Sub(j.b1.pos).Mul(0.5).Cross(v)
			j.b1.AddTorque(ltd)
			j.b2.AddTorque(ltd)
		}
	}
}

func (j *Slider) SetParam(p Param, v float64) { j.lm.set(p, v) }
func (j *Slider) Param(p Param) float64       { return j.lm.get(p) }

func (j *Slider) appendRows(c *rowContext) {
	c.addRotationRows(&j.jointBase, j.qrel)
	pos1, _, _ := j.pose1()
	ax := j.Axis()
	c.addLineRows(&j.jointBase, pos1, j.anchor(), ax)

	var a2 mgl64.Vec3
	if j.b2 != nil {
		a2 = pos1.Sub(j.b2.pos).Cross(ax).Mul(-1)
	}
	j.lm.addRow(c, &j.jointBase, ax, mgl64.Vec3{}, ax.Mul(-1), a2, j.Position(), j.PositionRate())
}

// Fixed welds body1 to body2 (or to the world) in their relative pose at
// the time of Set.
type Fixed struct {
	jointBase
	qrel   mgl64.Quat
	offset mgl64.Vec3
}

// Set captures the current relative pose.
func (j *Fixed) Set() {
	j.qrel = j.relQuat()
	pos1, _, _ := j.pose1()
	if j.b2 != nil {
		j.offset = j.b2.r.Transpose().Mul3x1(pos1.Sub(j.b2.pos))
	} else {
		j.offset = pos1
	}
}

func (j *Fixed) Attach(b1, b2 *Body) {
	j.jointBase.Attach(b1, b2)
	j.Set()
}

func (j *Fixed) appendRows(c *rowContext) {
	pos1, _, _ := j.pose1()
	target := j.offset
	if j.b2 != nil {
		target = j.b2.pos.Add(j.b2.r.Mul3x1(j.offset))
	}
	c.addPointRows(&j.jointBase, pos1, target)
	c.addRotationRows(&j.jointBase, j.qrel)
}

// Ball keeps one point of each body coincident.
type Ball struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
}

func (j *Ball) SetAnchor(p mgl64.Vec3) {
	pos1, r1, _ := j.pose1()
	pos2, r2, _ := j.pose2()
	j.anchor1 = r1.Transpose().Mul3x1(p.Sub(pos1))
	j.anchor2 = r2.Transpose().Mul3x1(p.Sub(pos2))
}

func (j *Ball) Anchor() mgl64.Vec3 {
	pos1, r1, _ := j.pose1()
	return pos1.Add(r1.Mul3x1(j.anchor1))
}

func (j *Ball) appendRows(c *rowContext) {
	pos2, r2, _ := j.pose2()
	c.addPointRows(&j.jointBase, j.Anchor(), pos2.Add(r2.Mul3x1(j.anchor2)))
}

// Piston allows translation along and rotation about one axis.
type Piston struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
	axis1, axis2     mgl64.Vec3
}

func (j *Piston) SetAnchor(p mgl64.Vec3) {
	pos1, r1, _ := j.pose1()
	pos2, r2, _ := j.pose2()
	j.anchor1 = r1.Transpose().Mul3x1(p.Sub(pos1))
	j.anchor2 = r2.Transpose().Mul3x1(p.Sub(pos2))
}

func (j *Piston) SetAxis(a mgl64.Vec3) {
	a = a.Normalize()
	_, r1, _ := j.pose1()
	_, r2, _ := j.pose2()
	j.axis1 = r1.Transpose().Mul3x1(a)
	j.axis2 = r2.Transpose().Mul3x1(a)
}

func (j *Piston) Axis() mgl64.Vec3 {
	_, r1, _ := j.pose1()
	return r1.Mul3x1(j.axis1)
}

func (j *Piston) appendRows(c *rowContext) {
	pos1, r1, _ := j.pose1()
	pos2, r2, _ := j.pose2()
	ax1 := j.Axis()
	c.addAxisRows(&j.jointBase, ax1, r2.Mul3x1(j.axis2))
	p1 := pos1.Add(r1.Mul3x1(j.anchor1))
	p2 := pos2.Add(r2.Mul3x1(j.anchor2))
	c.addLineRows(&j.jointBase, p1, p2, ax1)
}

// Plane2D keeps body1 in the z=0 plane and free to rotate about z only.
type Plane2D struct {
	jointBase
}

func (j *Plane2D) Attach(b1, _ *Body) {
	j.jointBase.Attach(b1, nil)
}

func (j *Plane2D) appendRows(c *rowContext) {
	if j.b1 == nil {
		return
	}
	r := c.row(&j.jointBase)
	r.J1L = mgl64.Vec3{0, 0, 1}
	r.RHS = -c.erp * j.b1.pos[2] / c.h
	c.push(r)
	for _, a := range [2]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}} {
		r := c.row(&j.jointBase)
		r.J1A = a
		c.push(r)
	}
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
