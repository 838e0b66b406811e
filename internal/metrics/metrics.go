// Package metrics summarizes a run from the link state of its bodies after
// every step.
package metrics

import "github.com/san-kum/dynbridge/internal/kin"

// Metric observes the bodies of a world once per step.
type Metric interface {
	Name() string
	Observe(bodies []*kin.Body, t float64)
	Value() float64
	Reset()
}

func movingLinks(bodies []*kin.Body, fn func(l *kin.Link)) {
	for _, b := range bodies {
		if b.IsStaticModel() {
			continue
		}
		for _, l := range b.Links() {
			fn(l)
		}
	}
}
