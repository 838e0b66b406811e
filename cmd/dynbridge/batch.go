package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/dynbridge/internal/automation"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/san-kum/dynbridge/internal/metrics"
	"github.com/san-kum/dynbridge/internal/optim"
	"github.com/san-kum/dynbridge/internal/storage"
	"github.com/spf13/cobra"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	mcPerturb  float64
	mcSeed     int64
	grid       []string
	tuneJoint  int
	tuneBody   string
	tuneTarget float64
)

func batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [plan.yaml]",
		Short: "run a scripted plan of scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}
	cmd.AddCommand(sweepCommand(), monteCarloCommand())
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := automation.LoadPlan(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(settings.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	save := func(step automation.PlanStep, cfg experiment.Config, result *experiment.Result) (string, error) {
		return st.Save(storage.RunMetadata{
			Seed:     cfg.Seed,
			Dt:       cfg.Dt,
			Duration: float64(result.Steps) * cfg.Dt,
			StepMode: stepModeOf(cfg),
			Preset:   step.Preset,
		}, result)
	}

	r := experiment.NewRunner(experiment.DefaultRegistry(), log)
	outcomes, err := automation.RunPlan(ctx, plan, r, settings, save, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENARIO\tSTEPS\tWALL\tRUN ID")
	for i, o := range outcomes {
		id := o.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%s\n", i+1, o.Step.Scenario, o.Result.Steps, o.Result.WallTime, id)
	}
	w.Flush()
	return err
}

func stepModeOf(cfg experiment.Config) string {
	if cfg.Simulator != nil {
		return cfg.Simulator.StepMode
	}
	return config.DefaultSimulator().StepMode
}

func sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run a scenario across a range of one parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := automation.RunSweep(context.Background(), &automation.ParameterSweep{
				Scenario:  args[0],
				ParamName: sweepParam,
				ParamMin:  sweepMin,
				ParamMax:  sweepMax,
				NumSteps:  sweepSteps,
				Duration:  duration,
				Dt:        settings.TimeStep,
			}, experiment.NewRunner(experiment.DefaultRegistry(), log), log)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tENERGY\tDRIFT\tSTABILITY\tEFFORT\n", strings.ToUpper(sweepParam))
			for _, s := range results {
				fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", s.ParamValue,
					s.Metrics["energy"], s.Metrics["energy_drift"], s.Metrics["stability"], s.Metrics["control_effort"])
			}
			w.Flush()
			return err
		},
	}
	cmd.Flags().StringVar(&sweepParam, "param", "", "parameter to sweep")
	cmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (default from scenario)")
	cmd.MarkFlagRequired("param")
	return cmd
}

func monteCarloCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "run perturbed trials in parallel and count unstable ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
				Scenario:     args[0],
				Perturbation: mcPerturb,
				NumTrials:    trials,
				Duration:     duration,
				Dt:           settings.TimeStep,
				Seed:         mcSeed,
			}, experiment.NewRunner(experiment.DefaultRegistry(), log))
			if err != nil {
				return err
			}
			stable, unstable := automation.MonteCarloStats(results)
			fmt.Printf("trials: %d  stable: %d  unstable: %d\n", len(results), stable, unstable)
			return nil
		},
	}
	cmd.Flags().IntVarP(&trials, "trials", "n", 20, "number of trials")
	cmd.Flags().Float64Var(&mcPerturb, "perturb", 0.01, "uniform noise on initial positions and joints")
	cmd.Flags().Int64Var(&mcSeed, "seed", 1, "seed of the first trial")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (default from scenario)")
	return cmd
}

func tuneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search controller gains for the lowest joint tracking error",
		Long: "Each --grid flag is name=v1,v2,... The metric is the mean absolute error\n" +
			"between a joint displacement and --target over the run.",
		Args: cobra.ExactArgs(1),
		RunE: tuneScenario,
	}
	cmd.Flags().StringArrayVarP(&grid, "grid", "g", nil, "parameter values as name=v1,v2,...")
	cmd.Flags().StringVar(&tuneBody, "body", "", "tracked body name")
	cmd.Flags().IntVar(&tuneJoint, "joint", 1, "tracked joint index")
	cmd.Flags().Float64Var(&tuneTarget, "target", 0, "joint target")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (default from scenario)")
	cmd.MarkFlagRequired("grid")
	cmd.MarkFlagRequired("body")
	return cmd
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(grid))
	ranges := make([][]float64, 0, len(grid))
	for _, g := range grid {
		name, list, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("grid %q is not name=v1,v2,...", g)
		}
		var values []float64
		for _, v := range strings.Split(list, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, f)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	r := experiment.NewRunner(experiment.DefaultRegistry(), log)
	track := metrics.NewTrackingError(tuneBody, tuneJoint, tuneTarget)
	r.NewMetrics = func(*config.Simulator) []metrics.Metric {
		track.Reset()
		return []metrics.Metric{track}
	}
	run := func(ctx context.Context, p experiment.Params) (*experiment.Result, error) {
		return r.Run(ctx, experiment.Config{
			Scenario: args[0],
			Settings: settings,
			Dt:       settings.TimeStep,
			Duration: duration,
			Params:   p,
		})
	}

	best, value, results, err := optim.NewGridSearch(names, ranges).Search(context.Background(), run, track.Name())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMETERS\tTRACKING ERROR")
	for _, tr := range results {
		if tr.Err != nil {
			fmt.Fprintf(w, "%s\t%v\n", formatParams(tr.Params), tr.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6f\n", formatParams(tr.Params), tr.Value)
	}
	w.Flush()
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: %s (%.6f)\n", formatParams(best), value)
	return nil
}
