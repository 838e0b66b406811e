// Package config holds the simulator properties, their persisted archive
// form, named presets and the application settings.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGravityAcceleration = 9.80665

	DefaultERP               = 0.4
	DefaultCFM               = "1.0e-10"
	DefaultIterations        = 50
	DefaultOverRelaxation    = 1.3
	DefaultMaxCorrectingVel  = "1.0e-3"
	DefaultSurfaceLayerDepth = 0.0001
	DefaultFriction          = 1.0

	MinOverRelaxation = 0.1
	MaxOverRelaxation = 1.9
)

var posInf = math.Inf(1)

// Simulator is the full property set of a simulation world.
type Simulator struct {
	StepMode           string      `yaml:"stepMode"`
	Gravity            mgl64.Vec3  `yaml:"gravity,flow"`
	Friction           float64     `yaml:"friction"`
	JointLimitMode     bool        `yaml:"jointLimitMode"`
	GlobalERP          float64     `yaml:"globalERP"`
	GlobalCFM          FloatString `yaml:"globalCFM"`
	NumIterations      int         `yaml:"numIterations"`
	OverRelaxation     float64     `yaml:"overRelaxation"`
	LimitCorrectingVel bool        `yaml:"limitCorrectingVel"`
	MaxCorrectingVel   FloatString `yaml:"maxCorrectingVel"`
	SurfaceLayerDepth  float64     `yaml:"surfaceLayerDepth"`
	Mode2D             bool        `yaml:"2Dmode"`
	UseWorldCollision  bool        `yaml:"UseWorldItem'sCollisionDetector"`
	VelocityMode       bool        `yaml:"velocityMode"`
}

func DefaultSimulator() *Simulator {
	return &Simulator{
		StepMode:           integrators.ModeIterative,
		Gravity:            mgl64.Vec3{0, 0, -DefaultGravityAcceleration},
		Friction:           DefaultFriction,
		GlobalERP:          DefaultERP,
		GlobalCFM:          MustFloatString(DefaultCFM),
		NumIterations:      DefaultIterations,
		OverRelaxation:     DefaultOverRelaxation,
		LimitCorrectingVel: true,
		MaxCorrectingVel:   MustFloatString(DefaultMaxCorrectingVel),
		SurfaceLayerDepth:  DefaultSurfaceLayerDepth,
	}
}

func (s *Simulator) Clone() *Simulator {
	c := *s
	return &c
}

func Load(path string) (*Simulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultSimulator()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Simulator) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetStepMode accepts a mode symbol or one of its aliases and stores the
// canonical symbol.
func (s *Simulator) SetStepMode(mode string) error {
	st, err := integrators.New(mode, integrators.Settings{})
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownStepMode, mode)
	}
	s.StepMode = st.Name()
	return nil
}

func (s *Simulator) SetFriction(v float64) {
	s.Friction = max(v, 0)
}

func (s *Simulator) SetGlobalERP(v float64) {
	s.GlobalERP = min(max(v, 0), 1)
}

func (s *Simulator) SetNumIterations(n int) {
	s.NumIterations = max(n, 1)
}

func (s *Simulator) SetOverRelaxation(v float64) {
	s.OverRelaxation = min(max(v, MinOverRelaxation), MaxOverRelaxation)
}

func (s *Simulator) SetSurfaceLayerDepth(v float64) {
	s.SurfaceLayerDepth = max(v, 0)
}

// CorrectingVelCap is the contact correcting velocity limit handed to the
// solver; +Inf when the limit is disabled.
func (s *Simulator) CorrectingVelCap() float64 {
	if !s.LimitCorrectingVel {
		return posInf
	}
	return s.MaxCorrectingVel.Value()
}

// Validate reports the first property outside its allowed range.
func (s *Simulator) Validate() error {
	switch {
	case s.Friction < 0:
		return fmt.Errorf("%w: friction %v < 0", ErrInvalidValue, s.Friction)
	case s.GlobalERP < 0 || s.GlobalERP > 1:
		return fmt.Errorf("%w: globalERP %v outside [0, 1]", ErrInvalidValue, s.GlobalERP)
	case s.GlobalCFM.Value() < 0:
		return fmt.Errorf("%w: globalCFM %v < 0", ErrInvalidValue, s.GlobalCFM)
	case s.NumIterations < 1:
		return fmt.Errorf("%w: numIterations %d < 1", ErrInvalidValue, s.NumIterations)
	case s.OverRelaxation < MinOverRelaxation || s.OverRelaxation > MaxOverRelaxation:
		return fmt.Errorf("%w: overRelaxation %v outside [%v, %v]", ErrInvalidValue, s.OverRelaxation, MinOverRelaxation, MaxOverRelaxation)
	case s.MaxCorrectingVel.Value() < 0:
		return fmt.Errorf("%w: maxCorrectingVel %v < 0", ErrInvalidValue, s.MaxCorrectingVel)
	case s.SurfaceLayerDepth < 0:
		return fmt.Errorf("%w: surfaceLayerDepth %v < 0", ErrInvalidValue, s.SurfaceLayerDepth)
	}
	if _, err := integrators.New(s.StepMode, integrators.Settings{}); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownStepMode, s.StepMode)
	}
	return nil
}
