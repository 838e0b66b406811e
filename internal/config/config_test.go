package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/integrators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSimulator(t *testing.T) {
	s := DefaultSimulator()

	assert.Equal(t, integrators.ModeIterative, s.StepMode)
	assert.Equal(t, mgl64.Vec3{0, 0, -9.80665}, s.Gravity)
	assert.Equal(t, 0.4, s.GlobalERP)
	assert.Equal(t, "1.0e-10", s.GlobalCFM.String())
	assert.InDelta(t, 1e-10, s.GlobalCFM.Value(), 1e-24)
	assert.Equal(t, 50, s.NumIterations)
	assert.Equal(t, 1.3, s.OverRelaxation)
	assert.True(t, s.LimitCorrectingVel)
	assert.Equal(t, "1.0e-3", s.MaxCorrectingVel.String())
	assert.Equal(t, 0.0001, s.SurfaceLayerDepth)
	assert.Equal(t, 1.0, s.Friction)
	assert.False(t, s.JointLimitMode)
	assert.False(t, s.Mode2D)
	assert.False(t, s.UseWorldCollision)
	assert.False(t, s.VelocityMode)
	require.NoError(t, s.Validate())
}

func TestSettersClamp(t *testing.T) {
	s := DefaultSimulator()

	s.SetGlobalERP(1.5)
	assert.Equal(t, 1.0, s.GlobalERP)
	s.SetGlobalERP(-1)
	assert.Equal(t, 0.0, s.GlobalERP)

	s.SetNumIterations(0)
	assert.Equal(t, 1, s.NumIterations)

	s.SetOverRelaxation(3)
	assert.Equal(t, MaxOverRelaxation, s.OverRelaxation)
	s.SetOverRelaxation(0)
	assert.Equal(t, MinOverRelaxation, s.OverRelaxation)

	s.SetFriction(-2)
	assert.Equal(t, 0.0, s.Friction)

	s.SetSurfaceLayerDepth(-1)
	assert.Equal(t, 0.0, s.SurfaceLayerDepth)

	require.NoError(t, s.SetStepMode("exact"))
	assert.Equal(t, integrators.ModeBigMatrix, s.StepMode)
	assert.ErrorIs(t, s.SetStepMode("leapfrog"), ErrUnknownStepMode)
}

func TestFloatString(t *testing.T) {
	f, err := ParseFloatString(" 2.5e-4 ")
	require.NoError(t, err)
	assert.Equal(t, "2.5e-4", f.String())
	assert.Equal(t, 2.5e-4, f.Value())

	_, err = ParseFloatString("abc")
	assert.ErrorIs(t, err, ErrInvalidValue)

	assert.ErrorIs(t, f.SetNonNegative("-1"), ErrInvalidValue)
	assert.Equal(t, "2.5e-4", f.String(), "rejected value must not be stored")
	require.NoError(t, f.SetNonNegative("0"))
	assert.Equal(t, 0.0, f.Value())
}

func TestCorrectingVelCap(t *testing.T) {
	s := DefaultSimulator()
	assert.Equal(t, 1e-3, s.CorrectingVelCap())
	s.LimitCorrectingVel = false
	assert.True(t, math.IsInf(s.CorrectingVelCap(), 1))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Simulator)
	}{
		{"friction", func(s *Simulator) { s.Friction = -1 }},
		{"erp", func(s *Simulator) { s.GlobalERP = 2 }},
		{"iterations", func(s *Simulator) { s.NumIterations = 0 }},
		{"over-relaxation", func(s *Simulator) { s.OverRelaxation = 2 }},
		{"cfm", func(s *Simulator) { s.GlobalCFM = MustFloatString("-1") }},
		{"layer", func(s *Simulator) { s.SurfaceLayerDepth = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSimulator()
			tt.modify(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidValue)
		})
	}

	s := DefaultSimulator()
	s.StepMode = "unknown"
	assert.ErrorIs(t, s.Validate(), ErrUnknownStepMode)
}

func TestArchiveKeys(t *testing.T) {
	a := NewMapArchive()
	DefaultSimulator().Store(a)
	assert.Equal(t, []string{
		"stepMode", "gravity", "friction", "jointLimitMode", "globalERP",
		"globalCFM", "numIterations", "overRelaxation", "limitCorrectingVel",
		"maxCorrectingVel", "surfaceLayerDepth", "2Dmode",
		"UseWorldItem'sCollisionDetector", "velocityMode",
	}, a.Keys())
}

func TestArchiveOverwriteAndDelete(t *testing.T) {
	a := NewMapArchive()
	a.Write("a", 1.0)
	a.Write("b", "two")
	a.Write("c", true)
	a.Write("a", 4.0)
	assert.Equal(t, []string{"a", "b", "c"}, a.Keys())
	assert.Equal(t, "4", a.Get("a", ""))

	assert.True(t, a.Delete("b"))
	assert.False(t, a.Delete("b"))
	assert.Equal(t, "none", a.Get("b", "none"))
	a.Write("b", "back")
	assert.Equal(t, []string{"a", "c", "b"}, a.Keys())

	path := filepath.Join(t.TempDir(), "order.yaml")
	require.NoError(t, a.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 4\nc: true\nb: back\n", string(data))

	loaded, err := LoadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, a.Keys(), loaded.Keys())
}

func TestArchiveRoundTrip(t *testing.T) {
	s := DefaultSimulator()
	s.StepMode = integrators.ModeBigMatrix
	s.Gravity = mgl64.Vec3{0, -9.8, 0}
	s.Friction = 0.7
	s.JointLimitMode = true
	s.GlobalERP = 0.25
	s.GlobalCFM = MustFloatString("3.0e-9")
	s.NumIterations = 77
	s.OverRelaxation = 1.1
	s.LimitCorrectingVel = false
	s.MaxCorrectingVel = MustFloatString("0.5")
	s.SurfaceLayerDepth = 0.002
	s.Mode2D = true
	s.UseWorldCollision = true
	s.VelocityMode = true

	a := NewMapArchive()
	s.Store(a)
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, a.Save(path))

	loaded, err := LoadArchive(path)
	require.NoError(t, err)
	got := DefaultSimulator()
	require.NoError(t, got.Restore(loaded))
	assert.Equal(t, s, got)
}

func TestRestoreKeepsMissing(t *testing.T) {
	a := NewMapArchive()
	a.Write(KeyFriction, 0.3)
	a.Write(KeyNumIterations, "many")

	s := DefaultSimulator()
	require.NoError(t, s.Restore(a))
	assert.Equal(t, 0.3, s.Friction)
	assert.Equal(t, DefaultIterations, s.NumIterations)
	assert.Equal(t, DefaultCFM, s.GlobalCFM.String())
}

func TestRestoreRejectsBadNumberString(t *testing.T) {
	a := NewMapArchive()
	a.Write(KeyGlobalCFM, "tiny")
	err := DefaultSimulator().Restore(a)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	s := DefaultSimulator()
	s.NumIterations = 12
	require.NoError(t, Save(path, s))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, os.WriteFile(path, []byte("globalERP: 4\n"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	assert.Contains(t, names, "default")
	assert.Contains(t, names, "planar")

	for _, name := range names {
		s, err := GetPreset(name)
		require.NoError(t, err, name)
		assert.NoError(t, s.Validate(), name)
	}

	p, err := GetPreset("planar")
	require.NoError(t, err)
	assert.True(t, p.Mode2D)
	p.Mode2D = false
	again, _ := GetPreset("planar")
	assert.True(t, again.Mode2D, "presets must be copies")

	_, err = GetPreset("missing")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	_, err = WriteDefaultSettings(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dynbridge.yaml"),
		[]byte("time_step: 0.002\npreset: planar\ndevices:\n  nail_driver:\n    enabled: false\n"), 0644))

	s, err = LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.002, s.TimeStep)
	assert.False(t, s.Nail.Enabled)
	assert.True(t, s.Vacuum.Enabled)

	sim, err := s.Simulator()
	require.NoError(t, err)
	assert.True(t, sim.Mode2D)
}

func TestLoadSettingsEnv(t *testing.T) {
	t.Setenv("DYNBRIDGE_LOG_LEVEL", "debug")
	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
}
