package metrics

import (
	"math"

	"github.com/san-kum/dynbridge/internal/kin"
)

// ControlEffort is the mean over steps of the summed absolute joint
// commands.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(bodies []*kin.Body, t float64) {
	for _, b := range bodies {
		for i := 0; i < b.NumJoints(); i++ {
			if j := b.Joint(i); j != nil {
				c.sum += math.Abs(j.U)
			}
		}
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
