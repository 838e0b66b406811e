package experiment

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/control"
	"github.com/san-kum/dynbridge/internal/kin"
)

// Binding runs one controller on one body before every step.
type Binding struct {
	Body       *kin.Body
	Controller control.Controller
}

// Setup is a freshly built scene: the bodies to simulate and the
// controllers driving them.
type Setup struct {
	Bodies   []*kin.Body
	Bindings []Binding
}

// Scenario is a named, reproducible scene.
type Scenario struct {
	Name        string
	Description string
	// Duration is the default run length in seconds.
	Duration float64
	// Configure adjusts the simulator properties; it may be nil.
	Configure func(cfg *config.Simulator)
	Build     func(p Params) *Setup
	// Params lists the tunable parameters Build reads, with defaults.
	Params Params
}

// Params are named scenario parameters. Missing keys take the scenario
// default.
type Params map[string]float64

func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Registry keeps scenarios in registration order.
type Registry struct {
	scenarios *orderedmap.OrderedMap[string, *Scenario]
}

func NewRegistry() *Registry {
	return &Registry{scenarios: orderedmap.NewOrderedMap[string, *Scenario]()}
}

func (r *Registry) Register(s *Scenario) {
	r.scenarios.Set(s.Name, s)
}

func (r *Registry) Get(name string) (*Scenario, error) {
	s, ok := r.scenarios.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return s, nil
}

func (r *Registry) List() []*Scenario {
	out := make([]*Scenario, 0, r.scenarios.Len())
	for el := r.scenarios.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

func (r *Registry) Names() []string {
	return r.scenarios.Keys()
}
