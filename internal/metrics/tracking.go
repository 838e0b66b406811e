package metrics

import (
	"math"

	"github.com/san-kum/dynbridge/internal/kin"
)

// TrackingError is the mean absolute deviation of one joint of the named
// body from a fixed target.
type TrackingError struct {
	Body   string
	Joint  int
	Target float64

	sum     float64
	samples int
}

func NewTrackingError(body string, joint int, target float64) *TrackingError {
	return &TrackingError{Body: body, Joint: joint, Target: target}
}

func (e *TrackingError) Name() string { return "tracking_error" }

func (e *TrackingError) Observe(bodies []*kin.Body, t float64) {
	for _, b := range bodies {
		if b.Name != e.Body {
			continue
		}
		if j := b.Joint(e.Joint); j != nil {
			e.sum += math.Abs(e.Target - j.Q)
			e.samples++
		}
		return
	}
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return math.Inf(1)
	}
	return e.sum / float64(e.samples)
}

func (e *TrackingError) Reset() {
	e.sum = 0
	e.samples = 0
}
