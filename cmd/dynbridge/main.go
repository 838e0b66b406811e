package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	settingsDir string
	dataDir     string
	logLevel    string

	dt          float64
	duration    float64
	preset      string
	simFile     string
	seed        int64
	perturb     float64
	recordEvery int
	params      []string
	noSave      bool
	worldColl   bool
	modelFile   string
	noShapes    bool
	division    int

	// loaded by the root command before any subcommand runs
	settings *config.Settings
	log      *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "dynbridge",
		Short:             "kinematic tree simulation on a constraint solver",
		SilenceUsage:      true,
		PersistentPreRunE: loadSettings,
	}
	rootCmd.PersistentFlags().StringVar(&settingsDir, "settings", ".", "directory holding dynbridge.yaml")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run store directory (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides settings)")

	rootCmd.AddCommand(
		runCommand(),
		liveCommand(),
		listCommand(),
		scenariosCommand(),
		plotCommand(),
		analyzeCommand(),
		exportCommand(),
		benchCommand(),
		configCommand(),
		batchCommand(),
		tuneCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSettings(cmd *cobra.Command, args []string) error {
	s, err := config.LoadSettings(settingsDir)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data") {
		s.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") {
		s.LogLevel = logLevel
	}
	settings = s

	log = logrus.New()
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	lvl, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return nil
}

// addSimFlags registers the flags shared by commands that build a world.
func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0, "time step (default from settings)")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (default from scenario)")
	cmd.Flags().StringVar(&preset, "preset", "", "simulator preset (default from settings)")
	cmd.Flags().StringVar(&simFile, "sim", "", "simulator archive to restore over the preset")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "scenario parameter as name=value")
	cmd.Flags().BoolVar(&worldColl, "world-collision", false, "use the external collision detector")
	cmd.Flags().StringVar(&modelFile, "model", "", "simulate a yaml body file instead of a built-in scenario")
	cmd.Flags().BoolVar(&noShapes, "no-shapes", false, "skip shapes when loading --model")
	cmd.Flags().IntVar(&division, "division", 20, "facets per circle for meshed --model shapes")
}

// scenarioRegistry returns the built-in scenarios plus the --model file,
// and the name of the scenario to run.
func scenarioRegistry(args []string) (*experiment.Registry, string, error) {
	reg := experiment.DefaultRegistry()
	if modelFile == "" {
		if len(args) == 0 {
			return nil, "", fmt.Errorf("a scenario or --model is required")
		}
		return reg, args[0], nil
	}
	loader := kin.NewYAMLLoader()
	loader.SetMessageSink(log)
	loader.SetVerbose(log.IsLevelEnabled(logrus.DebugLevel))
	loader.SetShapeLoadingEnabled(!noShapes)
	loader.SetDefaultDivisionNumber(division)
	sc, err := experiment.ModelScenario(modelFile, loader, settings.Duration)
	if err != nil {
		return nil, "", err
	}
	reg.Register(sc)
	return reg, sc.Name, nil
}

func parseParams(kvs []string) (experiment.Params, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	p := make(experiment.Params, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q is not name=value", kv)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		p[strings.TrimSpace(k)] = f
	}
	return p, nil
}

// buildConfig layers settings, then flags, into a runner configuration.
func buildConfig(cmd *cobra.Command, scenario string) (experiment.Config, error) {
	s := *settings
	if cmd.Flags().Changed("preset") {
		s.Preset = preset
	}
	if cmd.Flags().Changed("sim") {
		s.SimulatorFile = simFile
	}
	sim, err := s.Simulator()
	if err != nil {
		return experiment.Config{}, err
	}
	if cmd.Flags().Changed("world-collision") {
		sim.UseWorldCollision = worldColl
	}

	p, err := parseParams(params)
	if err != nil {
		return experiment.Config{}, err
	}

	cfg := experiment.Config{
		Scenario:  scenario,
		Simulator: sim,
		Settings:  settings,
		Dt:        settings.TimeStep,
		Params:    p,
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	return cfg, nil
}
