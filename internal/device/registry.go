package device

import (
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/sirupsen/logrus"
)

// NewRegistryFromSettings builds the modules enabled in s. Nailed objects
// held by a vacuum gripper are never pulled out.
func NewRegistryFromSettings(s *config.Settings, log *logrus.Entry) *Registry {
	r := NewRegistry()
	var vac *VacuumGrippers
	if s.Vacuum.Enabled {
		vac = NewVacuumGrippers(s.Vacuum.Dot, s.Vacuum.Distance, log)
		r.Register(vac)
	}
	if s.Nail.Enabled {
		nd := NewNailDrivers(s.Nail.Dot, s.Nail.Distance, s.Nail.DistantCheckCount, log)
		if vac != nil {
			nd.Held = vac.IsGripping
		}
		r.Register(nd)
	}
	return r
}
