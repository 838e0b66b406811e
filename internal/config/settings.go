package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	settingsFileName = "dynbridge"
	settingsFileType = "yaml"
	envPrefix        = "DYNBRIDGE"

	keyDataDir   = "data_dir"
	keyLogLevel  = "log_level"
	keyTimeStep  = "time_step"
	keyDuration  = "duration"
	keySimulator = "simulator"
	keyPreset    = "preset"

	keyVacuumEnabled       = "devices.vacuum_gripper.enabled"
	keyVacuumDot           = "devices.vacuum_gripper.dot"
	keyVacuumDistance      = "devices.vacuum_gripper.distance"
	keyNailEnabled         = "devices.nail_driver.enabled"
	keyNailDot             = "devices.nail_driver.dot"
	keyNailDistance        = "devices.nail_driver.distance"
	keyNailDistantCheckCnt = "devices.nail_driver.distant_check_count"

	DefaultTimeStep = 0.001
	DefaultDuration = 5.0
)

// VacuumSettings gate and tune the vacuum gripper module. A contact counts
// as touching the suction face when the dot product of its normal and the
// face normal is below Dot and the point lies within Distance of the face.
type VacuumSettings struct {
	Enabled  bool
	Dot      float64
	Distance float64
}

// NailSettings gate and tune the nail driver module. DistantCheckCount is
// the number of consecutive steps without contact after which the driver
// is considered withdrawn and may fire again.
type NailSettings struct {
	Enabled           bool
	Dot               float64
	Distance          float64
	DistantCheckCount int
}

// Settings are the application-level options layered from defaults, an
// optional dynbridge.yaml and DYNBRIDGE_* environment variables.
type Settings struct {
	DataDir  string
	LogLevel string
	TimeStep float64
	Duration float64
	Preset   string
	// SimulatorFile optionally names a simulator archive to restore.
	SimulatorFile string

	Vacuum VacuumSettings
	Nail   NailSettings
}

func DefaultSettings() *Settings {
	return &Settings{
		DataDir:  "runs",
		LogLevel: "info",
		TimeStep: DefaultTimeStep,
		Duration: DefaultDuration,
		Preset:   "default",
		Vacuum:   VacuumSettings{Enabled: true, Dot: -0.9, Distance: 0.01},
		Nail:     NailSettings{Enabled: true, Dot: -0.9, Distance: 0.01, DistantCheckCount: 5},
	}
}

func newViper(dir string) *viper.Viper {
	d := DefaultSettings()
	v := viper.New()
	v.SetDefault(keyDataDir, d.DataDir)
	v.SetDefault(keyLogLevel, d.LogLevel)
	v.SetDefault(keyTimeStep, d.TimeStep)
	v.SetDefault(keyDuration, d.Duration)
	v.SetDefault(keyPreset, d.Preset)
	v.SetDefault(keySimulator, "")
	v.SetDefault(keyVacuumEnabled, d.Vacuum.Enabled)
	v.SetDefault(keyVacuumDot, d.Vacuum.Dot)
	v.SetDefault(keyVacuumDistance, d.Vacuum.Distance)
	v.SetDefault(keyNailEnabled, d.Nail.Enabled)
	v.SetDefault(keyNailDot, d.Nail.Dot)
	v.SetDefault(keyNailDistance, d.Nail.Distance)
	v.SetDefault(keyNailDistantCheckCnt, d.Nail.DistantCheckCount)

	v.SetConfigName(settingsFileName)
	v.SetConfigType(settingsFileType)
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads dynbridge.yaml from dir if present. A missing file is
// not an error.
func LoadSettings(dir string) (*Settings, error) {
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}
	s := &Settings{
		DataDir:       v.GetString(keyDataDir),
		LogLevel:      v.GetString(keyLogLevel),
		TimeStep:      v.GetFloat64(keyTimeStep),
		Duration:      v.GetFloat64(keyDuration),
		Preset:        v.GetString(keyPreset),
		SimulatorFile: v.GetString(keySimulator),
		Vacuum: VacuumSettings{
			Enabled:  v.GetBool(keyVacuumEnabled),
			Dot:      v.GetFloat64(keyVacuumDot),
			Distance: v.GetFloat64(keyVacuumDistance),
		},
		Nail: NailSettings{
			Enabled:           v.GetBool(keyNailEnabled),
			Dot:               v.GetFloat64(keyNailDot),
			Distance:          v.GetFloat64(keyNailDistance),
			DistantCheckCount: v.GetInt(keyNailDistantCheckCnt),
		},
	}
	if s.TimeStep <= 0 {
		return nil, fmt.Errorf("%w: time_step %v must be positive", ErrInvalidValue, s.TimeStep)
	}
	return s, nil
}

// Simulator resolves the preset and then restores the optional archive
// file over it.
func (s *Settings) Simulator() (*Simulator, error) {
	sim, err := GetPreset(s.Preset)
	if err != nil {
		return nil, err
	}
	if s.SimulatorFile == "" {
		return sim, nil
	}
	a, err := LoadArchive(s.SimulatorFile)
	if err != nil {
		return nil, err
	}
	if err := sim.Restore(a); err != nil {
		return nil, err
	}
	return sim, sim.Validate()
}

// WriteDefaultSettings creates dir/dynbridge.yaml unless it exists.
func WriteDefaultSettings(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure settings dir: %w", err)
	}
	path := filepath.Join(dir, settingsFileName+"."+settingsFileType)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat settings file: %w", err)
	}
	return path, os.WriteFile(path, []byte(defaultSettingsYAML), 0o644)
}

const defaultSettingsYAML = `# dynbridge settings
data_dir: runs
log_level: info
time_step: 0.001
duration: 5
preset: default
# simulator: sim.yaml

devices:
  vacuum_gripper:
    enabled: true
    dot: -0.9
    distance: 0.01
  nail_driver:
    enabled: true
    dot: -0.9
    distance: 0.01
    distant_check_count: 5
`
