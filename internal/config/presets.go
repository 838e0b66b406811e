package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynbridge/internal/integrators"
)

// Presets are named simulator configurations. GetPreset returns copies, so
// callers may modify the result.
var Presets = map[string]func() *Simulator{
	"default": DefaultSimulator,
	"planar": func() *Simulator {
		s := DefaultSimulator()
		s.Mode2D = true
		return s
	},
	"stiff": func() *Simulator {
		s := DefaultSimulator()
		s.GlobalERP = 0.8
		s.GlobalCFM = MustFloatString("1.0e-12")
		s.NumIterations = 200
		s.OverRelaxation = 1.0
		s.JointLimitMode = true
		return s
	},
	"exact": func() *Simulator {
		s := DefaultSimulator()
		s.StepMode = integrators.ModeBigMatrix
		s.JointLimitMode = true
		return s
	},
	"servo": func() *Simulator {
		s := DefaultSimulator()
		s.VelocityMode = true
		s.JointLimitMode = true
		return s
	},
}

func GetPreset(name string) (*Simulator, error) {
	f, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return f(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
