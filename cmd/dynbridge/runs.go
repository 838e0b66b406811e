package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/dynbridge/internal/analysis"
	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/san-kum/dynbridge/internal/export"
	"github.com/san-kum/dynbridge/internal/storage"
	"github.com/san-kum/dynbridge/internal/viz"
	"github.com/spf13/cobra"
)

var (
	columns    []string
	plotWidth  int
	plotHeight int
	svgWidth   int
	svgHeight  int
	format     string
	outPath    string
	bodyName   string
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(settings.DataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs stored")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCENARIO\tSTEP MODE\tDT\tSTEPS\tTIMESTAMP")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%s\n",
					r.ID, r.Scenario, r.StepMode, r.Dt, r.Steps, r.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func scenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "list the built-in scenarios and their parameters",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTIME\tPARAMETERS\tDESCRIPTION")
			for _, sc := range experiment.DefaultRegistry().List() {
				fmt.Fprintf(w, "%s\t%gs\t%s\t%s\n", sc.Name, sc.Duration, formatParams(sc.Params), sc.Description)
			}
			w.Flush()
		},
	}
}

func formatParams(p experiment.Params) string {
	if len(p) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(p))
	for _, k := range sortedKeys(p) {
		parts = append(parts, fmt.Sprintf("%s=%g", k, p[k]))
	}
	return strings.Join(parts, " ")
}

// loadRun returns the metadata, labels and samples of a stored run.
func loadRun(id string) (*storage.RunMetadata, [][]float64, []float64, error) {
	st := storage.New(settings.DataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, nil, err
	}
	states, times, err := st.LoadStates(id)
	if err != nil {
		return nil, nil, nil, err
	}
	// drop the control columns
	for i, row := range states {
		if len(row) > len(meta.Labels) {
			states[i] = row[:len(meta.Labels)]
		}
	}
	return meta, states, times, nil
}

func plotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run-id]",
		Short: "plot recorded state columns of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, states, _, err := loadRun(args[0])
			if err != nil {
				return err
			}
			cols := columns
			if len(cols) == 0 && len(meta.Labels) > 0 {
				cols = meta.Labels[:min(2, len(meta.Labels))]
			}
			out, err := viz.Plot(meta.Labels, states, cols, plotWidth, plotHeight)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n\n%s\n", meta.Scenario, meta.ID, out)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "state columns to plot")
	cmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	cmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")
	return cmd
}

func analyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [run-id]",
		Short: "estimate dominant frequency and period of state columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, states, times, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if len(times) < 2 {
				return fmt.Errorf("run %s has too few samples", meta.ID)
			}
			dt := times[1] - times[0]
			cols := columns
			if len(cols) == 0 {
				cols = meta.Labels
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tMIN\tMAX\tFREQ (Hz)\tPERIOD (s)")
			for _, c := range cols {
				data, err := analysis.Column(meta.Labels, states, c)
				if err != nil {
					return err
				}
				lo, hi := data[0], data[0]
				for _, v := range data {
					lo, hi = min(lo, v), max(hi, v)
				}
				period := "-"
				if p, ok := analysis.Period(data, dt); ok {
					period = fmt.Sprintf("%.4f", p)
				}
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%s\n", c, lo, hi, analysis.DominantFrequency(data, dt), period)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "state columns to analyze (default all)")
	return cmd
}

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "export a run as json or an svg path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, states, times, err := loadRun(args[0])
			if err != nil {
				return err
			}
			switch format {
			case "json":
				result := &experiment.Result{
					Scenario: meta.Scenario,
					Labels:   meta.Labels,
					Times:    times,
					States:   states,
					Metrics:  meta.Metrics,
					Steps:    meta.Steps,
				}
				return storage.ExportJSON(outPath, storage.NewExportData(meta.StepMode, meta.Dt, meta.Duration, result))
			case "svg":
				body := bodyName
				if body == "" && len(meta.Labels) > 0 {
					body, _, _ = strings.Cut(meta.Labels[0], ".")
				}
				svg, err := export.PathSVG(meta.Labels, states, body, svgWidth, svgHeight)
				if err != nil {
					return err
				}
				if outPath == "" || outPath == "-" {
					_, err = fmt.Print(svg)
					return err
				}
				return os.WriteFile(outPath, []byte(svg), 0o644)
			default:
				return fmt.Errorf("unknown format %q (json, svg)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or svg")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&bodyName, "body", "", "body whose root path the svg traces (default first)")
	cmd.Flags().IntVar(&svgWidth, "width", 400, "svg width")
	cmd.Flags().IntVar(&svgHeight, "height", 300, "svg height")
	return cmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
