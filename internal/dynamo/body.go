package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mass describes a body's mass and its inertia tensor about the center of
// mass, in body coordinates. The body origin is always the center of mass.
type Mass struct {
	M float64
	I mgl64.Mat3
}

func (m Mass) Check() error {
	if m.M <= 0 || math.IsNaN(m.M) || math.IsInf(m.M, 0) {
		return ErrInvalidMass
	}
	if math.Abs(m.I.Det()) < 1e-300 {
		return ErrInvalidMass
	}
	return nil
}

// BoxMass returns the mass of a solid box with total mass m.
func BoxMass(m float64, size mgl64.Vec3) Mass {
	x2, y2, z2 := size[0]*size[0], size[1]*size[1], size[2]*size[2]
	return Mass{M: m, I: mgl64.Diag3(mgl64.Vec3{m * (y2 + z2) / 12, m * (x2 + z2) / 12, m * (x2 + y2) / 12})}
}

func SphereMass(m, radius float64) Mass {
	i := 0.4 * m * radius * radius
	return Mass{M: m, I: mgl64.Diag3(mgl64.Vec3{i, i, i})}
}

type Body struct {
	world *World
	index int

	pos mgl64.Vec3
	q   mgl64.Quat
	r   mgl64.Mat3

	lvel mgl64.Vec3
	avel mgl64.Vec3

	force  mgl64.Vec3
	torque mgl64.Vec3

	mass      Mass
	invMass   float64
	invI      mgl64.Mat3
	kinematic bool

	data any
}

func newBody(w *World) *Body {
	b := &Body{world: w, q: mgl64.QuatIdent(), r: mgl64.Ident3()}
	b.SetMass(Mass{M: 1, I: mgl64.Ident3()})
	return b
}

func (b *Body) World() *World { return b.world }

func (b *Body) SetData(v any) { b.data = v }
func (b *Body) Data() any     { return b.data }

func (b *Body) Position() mgl64.Vec3 { return b.pos }

func (b *Body) SetPosition(p mgl64.Vec3) { b.pos = p }

func (b *Body) Rotation() mgl64.Mat3 { return b.r }

// SetRotation sets the orientation from a proper rotation matrix. The
// matrix is kept as given so that a later Rotation call returns it exactly.
func (b *Body) SetRotation(r mgl64.Mat3) {
	b.r = r
	b.q = mgl64.Mat4ToQuat(r.Mat4()).Normalize()
}

func (b *Body) Quaternion() mgl64.Quat { return b.q }

func (b *Body) SetQuaternion(q mgl64.Quat) {
	b.q = q.Normalize()
	b.r = b.q.Mat4().Mat3()
}

func (b *Body) LinearVel() mgl64.Vec3  { return b.lvel }
func (b *Body) AngularVel() mgl64.Vec3 { return b.avel }

func (b *Body) SetLinearVel(v mgl64.Vec3)  { b.lvel = v }
func (b *Body) SetAngularVel(w mgl64.Vec3) { b.avel = w }

// PointVel returns the world velocity of the world point p fixed to b.
func (b *Body) PointVel(p mgl64.Vec3) mgl64.Vec3 {
	return b.lvel.Add(b.avel.Cross(p.Sub(b.pos)))
}

func (b *Body) AddForce(f mgl64.Vec3)  { b.force = b.force.Add(f) }
func (b *Body) AddTorque(t mgl64.Vec3) { b.torque = b.torque.Add(t) }

// AddForceAtPos applies f at the world point p.
func (b *Body) AddForceAtPos(f, p mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.pos).Cross(f))
}

func (b *Body) Force() mgl64.Vec3  { return b.force }
func (b *Body) Torque() mgl64.Vec3 { return b.torque }

func (b *Body) Mass() Mass { return b.mass }

// SetMass installs m. An invalid m is rejected and the previous mass kept.
func (b *Body) SetMass(m Mass) error {
	if err := m.Check(); err != nil {
		return err
	}
	b.mass = m
	b.updateInverse()
	return nil
}

// SetKinematic makes b immovable by constraints and forces; it still moves
// with whatever velocity it is given.
func (b *Body) SetKinematic() {
	b.kinematic = true
	b.updateInverse()
}

func (b *Body) SetDynamic() {
	b.kinematic = false
	b.updateInverse()
}

func (b *Body) IsKinematic() bool { return b.kinematic }

func (b *Body) updateInverse() {
	if b.kinematic {
		b.invMass = 0
		b.invI = mgl64.Mat3{}
		return
	}
	b.invMass = 1 / b.mass.M
	b.invI = b.mass.I.Inv()
}

// InvInertiaWorld returns R·I⁻¹·Rᵀ.
func (b *Body) InvInertiaWorld() mgl64.Mat3 {
	return b.r.Mul3(b.invI).Mul3(b.r.Transpose())
}

func (b *Body) inertiaWorld() mgl64.Mat3 {
	if b.kinematic {
		return mgl64.Mat3{}
	}
	return b.r.Mul3(b.mass.I).Mul3(b.r.Transpose())
}

func (b *Body) IsValid() bool {
	vals := []float64{b.q.W, b.q.V[0], b.q.V[1], b.q.V[2]}
	for _, v := range []mgl64.Vec3{b.pos, b.lvel, b.avel} {
		vals = append(vals, v[:]...)
	}
	for _, x := range vals {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
