package integrators

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

// stackProblem builds n bodies resting on each other along z.
func stackProblem(n int) *dynamo.Problem {
	p := &dynamo.Problem{
		H:       0.001,
		InvMass: make([]float64, n),
		InvI:    make([]mgl64.Mat3, n),
		V:       make([]mgl64.Vec3, n),
		W:       make([]mgl64.Vec3, n),
		Rand:    rand.New(rand.NewSource(0)),
	}
	for i := 0; i < n; i++ {
		p.InvMass[i] = 1
		p.InvI[i] = mgl64.Ident3()
		p.V[i] = mgl64.Vec3{0, 0, -0.01}
		below := i - 1
		r := dynamo.Row{B1: i, B2: below, J1L: mgl64.Vec3{0, 0, 1}, Hi: math.Inf(1), FIndex: -1, CFM: 1e-10}
		if below >= 0 {
			r.J2L = mgl64.Vec3{0, 0, -1}
		}
		p.Rows = append(p.Rows, r)
	}
	p.Lambda = make([]float64, len(p.Rows))
	return p
}

func BenchmarkQuickStep(b *testing.B) {
	s := NewQuickStep(50, 1.3)
	p := stackProblem(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Solve(p)
	}
}

func BenchmarkBigMatrix(b *testing.B) {
	s := NewBigMatrix()
	p := stackProblem(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Solve(p)
	}
}
