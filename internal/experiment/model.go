package experiment

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/models"
)

// ModelScenario simulates a body read from a model file, dropped on a
// floor. The file is loaded once here to report errors early and again on
// every Build, so each run starts from the file's state.
func ModelScenario(path string, loader kin.Loader, duration float64) (*Scenario, error) {
	probe := kin.NewBody("")
	if err := loader.Load(probe, path); err != nil {
		return nil, fmt.Errorf("load %s model %s: %w", loader.Format(), path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Scenario{
		Name:        name,
		Description: fmt.Sprintf("%s (%d links) from %s", probe.Name, probe.NumLinks(), path),
		Duration:    duration,
		Build: func(Params) *Setup {
			body := kin.NewBody("")
			if err := loader.Load(body, path); err != nil {
				return nil
			}
			return &Setup{Bodies: []*kin.Body{models.NewFloor(10), body}}
		},
	}, nil
}
