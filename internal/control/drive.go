package control

import "github.com/san-kum/dynbridge/internal/kin"

// Drive holds tracked links at constant surface speeds, keyed by link
// name.
type Drive struct {
	Speeds map[string]float64
}

func NewDrive(speeds map[string]float64) *Drive {
	return &Drive{Speeds: speeds}
}

func (d *Drive) Compute(body *kin.Body, t float64) {
	for name, v := range d.Speeds {
		l := body.LinkByName(name)
		if l == nil || !l.JointType.IsTracked() {
			continue
		}
		l.U = v
		l.Dq = v
	}
}

func (d *Drive) Reset() {}

// Set changes the speed of one link.
func (d *Drive) Set(name string, v float64) {
	if d.Speeds == nil {
		d.Speeds = make(map[string]float64)
	}
	d.Speeds[name] = v
}
