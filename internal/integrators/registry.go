package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynbridge/internal/dynamo"
)

// Step mode names as stored in simulator archives.
const (
	ModeIterative = "Iterative (quick step)"
	ModeBigMatrix = "Big matrix"
)

// Settings are the stepper-relevant simulator parameters.
type Settings struct {
	Iterations     int
	OverRelaxation float64
}

type factory func(Settings) dynamo.Stepper

var registry = map[string]factory{
	ModeIterative: func(s Settings) dynamo.Stepper { return NewQuickStep(s.Iterations, s.OverRelaxation) },
	ModeBigMatrix: func(Settings) dynamo.Stepper { return NewBigMatrix() },
}

var aliases = map[string]string{
	"iterative": ModeIterative,
	"quick":     ModeIterative,
	"bigmatrix": ModeBigMatrix,
	"exact":     ModeBigMatrix,
}

// New returns the stepper registered under mode, which may be an archive
// symbol or one of its short aliases.
func New(mode string, s Settings) (dynamo.Stepper, error) {
	if a, ok := aliases[mode]; ok {
		mode = a
	}
	f, ok := registry[mode]
	if !ok {
		return nil, fmt.Errorf("unknown step mode: %s", mode)
	}
	return f(s), nil
}

func Modes() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
