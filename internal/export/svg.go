// Package export renders recorded runs as standalone SVG charts.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dynbridge/internal/analysis"
)

// TrajectoryToSVG draws pts as one polyline scaled to fill the image.
func TrajectoryToSVG(pts []analysis.Point, width, height int, strokeColor string) string {
	if len(pts) < 2 {
		return ""
	}
	minX, maxX, minY, maxY := analysis.Bounds(pts)
	rangeX, rangeY := maxX-minX, maxY-minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range pts {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// PathSVG draws the x-z path of a body from the columns <body>.x and
// <body>.z, side on.
func PathSVG(labels []string, states [][]float64, body string, width, height int) (string, error) {
	pts, err := analysis.PhasePortrait(labels, states, body+".x", body+".z")
	if err != nil {
		return "", err
	}
	if len(pts) < 2 {
		return "", fmt.Errorf("export: %s has fewer than two samples", body)
	}
	return TrajectoryToSVG(pts, width, height, "#00ffff"), nil
}
