// Package analysis characterizes recorded runs: column extraction,
// spectra, oscillation periods and phase portraits.
package analysis

import (
	"fmt"
	"math"
)

// Column returns the samples of the named state column.
func Column(labels []string, states [][]float64, name string) ([]float64, error) {
	idx := -1
	for i, l := range labels {
		if l == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("analysis: unknown column %q", name)
	}
	out := make([]float64, 0, len(states))
	for _, x := range states {
		if idx < len(x) {
			out = append(out, x[idx])
		}
	}
	return out, nil
}

// Period estimates the oscillation period from the mean spacing of
// upward crossings of the series mean. ok is false with fewer than two
// crossings.
func Period(data []float64, dt float64) (period float64, ok bool) {
	if len(data) < 3 {
		return 0, false
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	var crossings []float64
	for i := 1; i < len(data); i++ {
		a, b := data[i-1]-mean, data[i]-mean
		if a < 0 && b >= 0 {
			crossings = append(crossings, (float64(i-1)+a/(a-b))*dt)
		}
	}
	if len(crossings) < 2 {
		return 0, false
	}
	return (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1), true
}

// Point is one sample of a phase portrait.
type Point struct{ X, Y float64 }

// PhasePortrait pairs two columns sample by sample.
func PhasePortrait(labels []string, states [][]float64, xName, yName string) ([]Point, error) {
	xs, err := Column(labels, states, xName)
	if err != nil {
		return nil, err
	}
	ys, err := Column(labels, states, yName)
	if err != nil {
		return nil, err
	}
	pts := make([]Point, min(len(xs), len(ys)))
	for i := range pts {
		pts[i] = Point{xs[i], ys[i]}
	}
	return pts, nil
}

// Bounds returns the bounding box of pts, padded by 10% and never
// degenerate.
func Bounds(pts []Point) (minX, maxX, minY, maxY float64) {
	if len(pts) == 0 {
		return 0, 1, 0, 1
	}
	minX, maxX = pts[0].X, pts[0].X
	minY, maxY = pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rx, ry := maxX-minX, maxY-minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return minX - rx*0.1, maxX + rx*0.1, minY - ry*0.1, maxY + ry*0.1
}
