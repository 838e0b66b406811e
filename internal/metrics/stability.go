package metrics

import (
	"math"

	"github.com/san-kum/dynbridge/internal/kin"
)

// Stability is the fraction of steps in which every link speed stayed
// finite and below the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(bodies []*kin.Body, t float64) {
	s.samples++
	bad := false
	movingLinks(bodies, func(l *kin.Link) {
		if bad {
			return
		}
		for _, speed := range []float64{l.V.Len(), l.W.Len()} {
			if math.IsNaN(speed) || speed > s.threshold {
				bad = true
			}
		}
	})
	if bad {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
