package experiment

import (
	"math"

	"github.com/san-kum/dynbridge/internal/kin"
)

// recorder flattens the moving bodies into a state vector of root
// positions followed by joint displacements and rates.
type recorder struct {
	bodies []*kin.Body
	labels []string
}

func newRecorder(bodies []*kin.Body) *recorder {
	rec := &recorder{}
	for _, b := range bodies {
		if b.IsStaticModel() {
			continue
		}
		rec.bodies = append(rec.bodies, b)
		rec.labels = append(rec.labels, b.Name+".x", b.Name+".y", b.Name+".z")
		for i := 0; i < b.NumJoints(); i++ {
			if j := b.Joint(i); j != nil {
				rec.labels = append(rec.labels, b.Name+"."+j.Name()+".q", b.Name+"."+j.Name()+".dq")
			}
		}
	}
	return rec
}

func (r *recorder) state() []float64 {
	x := make([]float64, 0, len(r.labels))
	for _, b := range r.bodies {
		p := b.RootLink().P
		x = append(x, p[0], p[1], p[2])
		for i := 0; i < b.NumJoints(); i++ {
			if j := b.Joint(i); j != nil {
				x = append(x, j.Q, j.Dq)
			}
		}
	}
	return x
}

func (r *recorder) controls() []float64 {
	var u []float64
	for _, b := range r.bodies {
		for i := 0; i < b.NumJoints(); i++ {
			if j := b.Joint(i); j != nil {
				u = append(u, j.U)
			}
		}
	}
	return u
}

// valid reports whether every link pose and velocity is finite.
func (r *recorder) valid() bool {
	finite := func(v ...float64) bool {
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
		return true
	}
	for _, b := range r.bodies {
		for _, l := range b.Links() {
			if !finite(l.P[0], l.P[1], l.P[2], l.V[0], l.V[1], l.V[2], l.W[0], l.W[1], l.W[2]) {
				return false
			}
		}
	}
	return true
}
