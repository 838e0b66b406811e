package integrators

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

// rowCache holds per-row values that stay fixed during one solve.
type rowCache struct {
	l1, a1, l2, a2 []mgl64.Vec3
	diag           []float64
	rhs            []float64
	cfm            []float64
	dv, dw         []mgl64.Vec3
}

func (c *rowCache) prepare(p *dynamo.Problem) {
	n := len(p.Rows)
	c.l1 = grow(c.l1, n)
	c.a1 = grow(c.a1, n)
	c.l2 = grow(c.l2, n)
	c.a2 = grow(c.a2, n)
	c.diag = grow(c.diag, n)
	c.rhs = grow(c.rhs, n)
	c.cfm = grow(c.cfm, n)
	c.dv = grow(c.dv, len(p.V))
	c.dw = grow(c.dw, len(p.W))
	for i := range c.dv {
		c.dv[i] = mgl64.Vec3{}
		c.dw[i] = mgl64.Vec3{}
	}
	for i := range p.Rows {
		r := &p.Rows[i]
		c.l1[i], c.a1[i], c.l2[i], c.a2[i] = p.MinvJ(i)
		c.cfm[i] = r.CFM / p.H
		c.diag[i] = r.J1L.Dot(c.l1[i]) + r.J1A.Dot(c.a1[i]) + r.J2L.Dot(c.l2[i]) + r.J2A.Dot(c.a2[i]) + c.cfm[i]
		c.rhs[i] = r.RHS - p.RelVel(i, p.V, p.W)
		p.Lambda[i] = 0
	}
}

// relDelta is J·Δv for row i using the accumulated impulse response.
func (c *rowCache) relDelta(r *dynamo.Row) float64 {
	s := 0.0
	if r.B1 >= 0 {
		s += r.J1L.Dot(c.dv[r.B1]) + r.J1A.Dot(c.dw[r.B1])
	}
	if r.B2 >= 0 {
		s += r.J2L.Dot(c.dv[r.B2]) + r.J2A.Dot(c.dw[r.B2])
	}
	return s
}

func (c *rowCache) apply(i int, r *dynamo.Row, delta float64) {
	if r.B1 >= 0 {
		c.dv[r.B1] = c.dv[r.B1].Add(c.l1[i].Mul(delta))
		c.dw[r.B1] = c.dw[r.B1].Add(c.a1[i].Mul(delta))
	}
	if r.B2 >= 0 {
		c.dv[r.B2] = c.dv[r.B2].Add(c.l2[i].Mul(delta))
		c.dw[r.B2] = c.dw[r.B2].Add(c.a2[i].Mul(delta))
	}
}

// project updates row i by one relaxed Gauss-Seidel step and returns the
// applied change of its impulse.
func (c *rowCache) project(p *dynamo.Problem, i int, omega float64) float64 {
	r := &p.Rows[i]
	if c.diag[i] <= 0 {
		return 0
	}
	old := p.Lambda[i]
	res := c.rhs[i] - c.relDelta(r) - c.cfm[i]*old
	next := old + omega*res/c.diag[i]
	lo, hi := p.Bounds(i, p.Lambda)
	if next < lo {
		next = lo
	} else if next > hi {
		next = hi
	}
	delta := next - old
	if delta != 0 {
		p.Lambda[i] = next
		c.apply(i, r, delta)
	}
	return delta
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
