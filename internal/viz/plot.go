package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// Plot charts the named columns of recorded states. Columns are matched
// against labels; an unknown name is an error.
func Plot(labels []string, states [][]float64, columns []string, w, h int) (string, error) {
	if len(states) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	series := make([][]float64, 0, len(columns))
	for _, name := range columns {
		i, ok := index[name]
		if !ok {
			return "", fmt.Errorf("unknown column %q", name)
		}
		data := make([]float64, 0, len(states))
		for _, x := range states {
			if i < len(x) {
				data = append(data, x[i])
			}
		}
		series = append(series, data)
	}

	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Green}
	opts := []asciigraph.Option{
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(columns...),
	}
	if len(columns) == 1 {
		opts = append(opts, asciigraph.Caption(columns[0]))
	}
	return asciigraph.PlotMany(series, opts...), nil
}
