package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/san-kum/dynbridge/internal/sim"
	"github.com/san-kum/dynbridge/internal/storage"
	"github.com/san-kum/dynbridge/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(cmd)
	cmd.Flags().Int64Var(&seed, "seed", 0, "perturbation seed")
	cmd.Flags().Float64Var(&perturb, "perturb", 0, "uniform noise on initial positions and joints")
	cmd.Flags().IntVar(&recordEvery, "record-every", 10, "keep one sample per this many steps")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	reg, name, err := scenarioRegistry(args)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, name)
	if err != nil {
		return err
	}
	cfg.Seed = seed
	cfg.Perturb = perturb
	cfg.RecordEvery = recordEvery

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := experiment.NewRunner(reg, log)
	log.WithFields(logrus.Fields{"scenario": cfg.Scenario, "stepMode": cfg.Simulator.StepMode}).Info("running")
	result, err := r.Run(ctx, cfg)
	if err != nil {
		var se *experiment.StepError
		if errors.As(err, &se) {
			log.WithFields(logrus.Fields{"step": se.Step, "time": se.Time}).Error("run diverged")
		}
		if result == nil || !(errors.Is(err, context.Canceled) || errors.As(err, &se)) {
			return err
		}
		log.WithError(err).Warn("keeping partial result")
	}

	fmt.Printf("steps: %d  wall: %v  physics: %v  collision: %v\n",
		result.Steps, result.WallTime, result.PhysicsTime, result.CollisionTime)
	printMetrics(result.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(settings.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Seed:     cfg.Seed,
		Dt:       cfg.Dt,
		Duration: float64(result.Steps) * cfg.Dt,
		StepMode: cfg.Simulator.StepMode,
		Preset:   settingsPreset(cmd),
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func settingsPreset(cmd *cobra.Command) string {
	if cmd.Flags().Changed("preset") {
		return preset
	}
	return settings.Preset
}

func printMetrics(m map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(w, "%s\t%.6f\n", k, m[k])
	}
	w.Flush()
}

var theme string

func liveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "step a scenario in real time in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	return cmd
}

func runLive(cmd *cobra.Command, args []string) error {
	reg, name, err := scenarioRegistry(args)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, name)
	if err != nil {
		return err
	}
	if !slices.Contains(viz.ThemeNames(), theme) {
		return fmt.Errorf("unknown theme %q", theme)
	}
	viz.SetTheme(theme)
	// the program owns the terminal
	log.SetLevel(logrus.ErrorLevel)

	r := experiment.NewRunner(reg, log)
	prepare := func() (*sim.World, *experiment.Setup, error) {
		c := cfg
		return r.Prepare(&c)
	}
	m, err := viz.NewModel(cfg.Scenario, prepare)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return m.Err()
}
