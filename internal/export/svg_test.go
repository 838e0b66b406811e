package export

import (
	"strings"
	"testing"

	"github.com/san-kum/dynbridge/internal/analysis"
)

func TestTrajectoryToSVG(t *testing.T) {
	pts := []analysis.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	svg := TrajectoryToSVG(pts, 120, 120, "#fff")
	for _, want := range []string{`width="120"`, `stroke="#fff"`, "M10.0,110.0 L110.0,10.0"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg lacks %q:\n%s", want, svg)
		}
	}
	if TrajectoryToSVG(pts[:1], 10, 10, "#fff") != "" {
		t.Error("single point should render nothing")
	}
}

func TestPathSVG(t *testing.T) {
	labels := []string{"cart.x", "cart.y", "cart.z"}
	states := [][]float64{{0, 0, 1}, {1, 0, 0.5}, {2, 0, 0}}

	svg, err := PathSVG(labels, states, "cart", 100, 50)
	if err != nil {
		t.Fatalf("PathSVG: %v", err)
	}
	if !strings.HasPrefix(svg, "<?xml") {
		t.Error("not an svg document")
	}
	if _, err := PathSVG(labels, states, "rover", 100, 50); err == nil {
		t.Error("unknown body accepted")
	}
	if _, err := PathSVG(labels, states[:1], "cart", 100, 50); err == nil {
		t.Error("one sample accepted")
	}
}
