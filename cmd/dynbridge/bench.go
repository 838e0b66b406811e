package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/san-kum/dynbridge/internal/integrators"
	"github.com/spf13/cobra"
)

var benchTime float64

func benchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [scenario...]",
		Short: "time every step mode on scenarios (default all)",
		RunE:  benchScenarios,
	}
	cmd.Flags().Float64Var(&benchTime, "time", 1, "simulated seconds per run")
	cmd.Flags().Float64Var(&dt, "dt", 0, "time step (default from settings)")
	return cmd
}

func benchScenarios(cmd *cobra.Command, args []string) error {
	reg := experiment.DefaultRegistry()
	names := args
	if len(names) == 0 {
		names = reg.Names()
	}
	step := settings.TimeStep
	if cmd.Flags().Changed("dt") {
		step = dt
	}
	base, err := settings.Simulator()
	if err != nil {
		return err
	}

	r := experiment.NewRunner(reg, log)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tSTEP MODE\tSTEPS\tWALL\tPHYSICS\tCOLLISION\tSTEPS/SEC")
	for _, name := range names {
		for _, mode := range []string{integrators.ModeIterative, integrators.ModeBigMatrix} {
			sim := base.Clone()
			if err := sim.SetStepMode(mode); err != nil {
				return err
			}
			result, err := r.Run(context.Background(), experiment.Config{
				Scenario:  name,
				Simulator: sim,
				Settings:  settings,
				Dt:        step,
				Duration:  benchTime,
			})
			if err != nil {
				fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t%v\n", name, mode, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%v\t%v\t%.0f\n",
				name, mode, result.Steps, result.WallTime, result.PhysicsTime, result.CollisionTime,
				float64(result.Steps)/result.WallTime.Seconds())
		}
	}
	return w.Flush()
}
