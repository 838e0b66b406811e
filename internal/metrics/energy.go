package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

// MechanicalEnergy is the kinetic plus potential energy of every link of
// the non-static bodies. Potential energy is zero at the origin.
func MechanicalEnergy(bodies []*kin.Body, gravity mgl64.Vec3) float64 {
	total := 0.0
	movingLinks(bodies, func(l *kin.Link) {
		lc := l.R.Mul3x1(l.C)
		c := l.P.Add(lc)
		v := l.V.Add(l.W.Cross(lc))
		iw := l.R.Mul3(l.I).Mul3(l.R.Transpose())
		total += 0.5*l.M*v.Dot(v) + 0.5*l.W.Dot(iw.Mul3x1(l.W))
		total -= l.M * gravity.Dot(c)
	})
	return total
}

// Energy is the mean mechanical energy over the run.
type Energy struct {
	name    string
	gravity mgl64.Vec3
	samples int
	total   float64
}

func NewEnergy(gravity mgl64.Vec3) *Energy {
	return &Energy{name: "energy", gravity: gravity}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(bodies []*kin.Body, t float64) {
	e.total += MechanicalEnergy(bodies, e.gravity)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation from the first observed
// energy.
type EnergyDrift struct {
	name     string
	gravity  mgl64.Vec3
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(gravity mgl64.Vec3) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", gravity: gravity}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(bodies []*kin.Body, t float64) {
	energy := MechanicalEnergy(bodies, e.gravity)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
