// Package optim tunes scenario parameters by exhaustive search.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/dynbridge/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no run produced the metric")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// RunFunc simulates one candidate parameter set.
type RunFunc func(ctx context.Context, params experiment.Params) (*experiment.Result, error)

// Trial is one evaluated candidate.
type Trial struct {
	Params experiment.Params
	Value  float64
	Err    error
}

// Search evaluates every combination and returns the one minimizing
// metricName. Failed runs are kept in the trial list and skipped.
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metricName string) (experiment.Params, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var trials []Trial
	err := g.searchRecursive(ctx, 0, experiment.Params{}, func(p experiment.Params) {
		result, err := run(ctx, p)
		tr := Trial{Params: p, Value: math.Inf(1), Err: err}
		if err == nil {
			if v, ok := result.Metrics[metricName]; ok && !math.IsNaN(v) {
				tr.Value = v
			} else {
				tr.Err = fmt.Errorf("metric %q missing", metricName)
			}
		}
		trials = append(trials, tr)
	})
	if err != nil {
		return nil, 0, trials, err
	}

	best := math.Inf(1)
	var bestParams experiment.Params
	for _, tr := range trials {
		if tr.Err == nil && tr.Value < best {
			best, bestParams = tr.Value, tr.Params
		}
	}
	if bestParams == nil {
		return nil, 0, trials, ErrNoCandidate
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current experiment.Params, eval func(experiment.Params)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		eval(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(experiment.Params, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, eval); err != nil {
			return err
		}
	}
	return nil
}
