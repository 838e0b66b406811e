package control

import (
	"math"

	"github.com/san-kum/dynbridge/internal/kin"
)

// LQR is full state feedback on the joint vector [q..., dq...] of a body.
// Row i of K produces the command of joint i.
type LQR struct {
	K      [][]float64
	Target []float64
}

func NewLQR(k [][]float64, target []float64) *LQR {
	return &LQR{K: k, Target: target}
}

var pendulumGains = [][]float64{{31.62, 10.0}}

// NewPendulumLQR balances a single pendulum upright.
func NewPendulumLQR() *LQR {
	return NewLQR(pendulumGains, []float64{math.Pi, 0})
}

func (l *LQR) state(body *kin.Body) []float64 {
	n := body.NumJoints()
	x := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		if j := body.Joint(i); j != nil {
			x[i] = j.Q
			x[n+i] = j.Dq
		}
	}
	return x
}

func (l *LQR) Compute(body *kin.Body, t float64) {
	x := l.state(body)
	for i := range l.K {
		if i >= body.NumJoints() || body.Joint(i) == nil {
			continue
		}
		u := 0.0
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u -= l.K[i][j] * (x[j] - target)
			}
		}
		body.Joint(i).U = u
	}
}

func (l *LQR) Reset() {}
