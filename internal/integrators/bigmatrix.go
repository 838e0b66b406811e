package integrators

import (
	"math"

	"github.com/san-kum/dynbridge/internal/dynamo"
)

const (
	bigMatrixTolerance = 1e-10
	bigMatrixMaxIter   = 10000
)

// BigMatrix assembles the dense Delassus matrix A = J·M⁻¹·Jᵀ + CFM/h and
// solves the bounded problem by projected Gauss-Seidel until the largest
// impulse change falls below tolerance.
type BigMatrix struct {
	MaxIterations int

	cache rowCache
	a     []float64
}

func NewBigMatrix() *BigMatrix {
	return &BigMatrix{MaxIterations: bigMatrixMaxIter}
}

func (s *BigMatrix) Name() string { return ModeBigMatrix }

func (s *BigMatrix) Solve(p *dynamo.Problem) {
	c := &s.cache
	c.prepare(p)
	n := len(p.Rows)
	s.a = grow(s.a, n*n)
	for i := 0; i < n; i++ {
		ri := &p.Rows[i]
		for j := 0; j < n; j++ {
			v := coupling(ri, &p.Rows[j], c, j)
			if i == j {
				v += c.cfm[i]
			}
			s.a[i*n+j] = v
		}
	}

	lambda := p.Lambda
	for it := 0; it < s.MaxIterations; it++ {
		maxDelta := 0.0
		for i := 0; i < n; i++ {
			d := s.a[i*n+i]
			if d <= 0 {
				continue
			}
			res := c.rhs[i]
			row := s.a[i*n : i*n+n]
			for j, l := range lambda {
				res -= row[j] * l
			}
			next := lambda[i] + res/d
			lo, hi := p.Bounds(i, lambda)
			next = math.Max(lo, math.Min(hi, next))
			maxDelta = math.Max(maxDelta, math.Abs(next-lambda[i]))
			lambda[i] = next
		}
		if maxDelta < bigMatrixTolerance {
			return
		}
	}
}

// coupling is J_i·M⁻¹·J_jᵀ, nonzero only when the rows share a body.
func coupling(ri, rj *dynamo.Row, c *rowCache, j int) float64 {
	v := 0.0
	if ri.B1 >= 0 {
		if ri.B1 == rj.B1 {
			v += ri.J1L.Dot(c.l1[j]) + ri.J1A.Dot(c.a1[j])
		}
		if ri.B1 == rj.B2 {
			v += ri.J1L.Dot(c.l2[j]) + ri.J1A.Dot(c.a2[j])
		}
	}
	if ri.B2 >= 0 {
		if ri.B2 == rj.B1 {
			v += ri.J2L.Dot(c.l1[j]) + ri.J2A.Dot(c.a1[j])
		}
		if ri.B2 == rj.B2 {
			v += ri.J2L.Dot(c.l2[j]) + ri.J2A.Dot(c.a2[j])
		}
	}
	return v
}
