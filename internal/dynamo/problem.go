package dynamo

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Row is one scalar velocity constraint
//
//	J1L·v1 + J1A·w1 + J2L·v2 + J2A·w2 = RHS
//
// with the multiplier bounded by [Lo, Hi] (force units). When FIndex is
// non-negative the bounds are instead ±Mu times the multiplier of row
// FIndex. B1 and B2 index Problem bodies; -1 means the static environment.
type Row struct {
	B1, B2             int
	J1L, J1A, J2L, J2A mgl64.Vec3

	RHS    float64
	CFM    float64
	Lo, Hi float64
	FIndex int
	Mu     float64
}

func newRow(b1, b2 int, cfm float64) Row {
	return Row{B1: b1, B2: b2, CFM: cfm, Lo: math.Inf(-1), Hi: math.Inf(1), FIndex: -1}
}

// Problem is the assembled constraint system of one step. V and W hold the
// body velocities after external forces were applied. A Stepper fills
// Lambda with the constraint impulses.
type Problem struct {
	H       float64
	Rows    []Row
	InvMass []float64
	InvI    []mgl64.Mat3
	V       []mgl64.Vec3
	W       []mgl64.Vec3
	Lambda  []float64
	Rand    *rand.Rand
}

// Stepper solves a Problem for its constraint impulses.
type Stepper interface {
	Name() string
	Solve(p *Problem)
}

func (p *Problem) reset(nb int) {
	p.Rows = p.Rows[:0]
	p.InvMass = resize(p.InvMass, nb)
	p.InvI = resize(p.InvI, nb)
	p.V = resize(p.V, nb)
	p.W = resize(p.W, nb)
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	var zero T
	for i := range s {
		s[i] = zero
	}
	return s
}

// MinvJ returns M⁻¹Jᵀ for both bodies of row i.
func (p *Problem) MinvJ(i int) (l1, a1, l2, a2 mgl64.Vec3) {
	r := &p.Rows[i]
	if r.B1 >= 0 {
		l1 = r.J1L.Mul(p.InvMass[r.B1])
		a1 = p.InvI[r.B1].Mul3x1(r.J1A)
	}
	if r.B2 >= 0 {
		l2 = r.J2L.Mul(p.InvMass[r.B2])
		a2 = p.InvI[r.B2].Mul3x1(r.J2A)
	}
	return
}

// RelVel evaluates J·(v, w) for row i given per-body velocity arrays.
func (p *Problem) RelVel(i int, v, w []mgl64.Vec3) float64 {
	r := &p.Rows[i]
	s := 0.0
	if r.B1 >= 0 {
		s += r.J1L.Dot(v[r.B1]) + r.J1A.Dot(w[r.B1])
	}
	if r.B2 >= 0 {
		s += r.J2L.Dot(v[r.B2]) + r.J2A.Dot(w[r.B2])
	}
	return s
}

// Bounds returns the impulse bounds of row i given the current impulses.
func (p *Problem) Bounds(i int, lambda []float64) (lo, hi float64) {
	r := &p.Rows[i]
	if r.FIndex >= 0 {
		hi = r.Mu * math.Abs(lambda[r.FIndex])
		return -hi, hi
	}
	return r.Lo * p.H, r.Hi * p.H
}
