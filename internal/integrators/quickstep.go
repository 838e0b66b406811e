package integrators

import (
	"github.com/san-kum/dynbridge/internal/dynamo"
)

const reorderInterval = 8

// QuickStep is a fixed-iteration projected Gauss-Seidel solver with
// successive over-relaxation. Rows without a friction dependency are
// visited before friction rows; within each class the order is shuffled
// every few iterations using the problem's generator.
type QuickStep struct {
	Iterations int
	Omega      float64

	cache rowCache
	order []int
}

func NewQuickStep(iterations int, omega float64) *QuickStep {
	if iterations < 1 {
		iterations = 1
	}
	if omega <= 0 {
		omega = 1
	}
	return &QuickStep{Iterations: iterations, Omega: omega}
}

func (q *QuickStep) Name() string { return ModeIterative }

func (q *QuickStep) Solve(p *dynamo.Problem) {
	q.cache.prepare(p)
	q.order = grow(q.order, len(p.Rows))
	normals := 0
	for i := range p.Rows {
		if p.Rows[i].FIndex < 0 {
			q.order[normals] = i
			normals++
		}
	}
	k := normals
	for i := range p.Rows {
		if p.Rows[i].FIndex >= 0 {
			q.order[k] = i
			k++
		}
	}

	for it := 0; it < q.Iterations; it++ {
		if it > 0 && it%reorderInterval == 0 && p.Rand != nil {
			shuffle(p, q.order[:normals])
			shuffle(p, q.order[normals:])
		}
		for _, i := range q.order {
			q.cache.project(p, i, q.Omega)
		}
	}
}

func shuffle(p *dynamo.Problem, s []int) {
	p.Rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
