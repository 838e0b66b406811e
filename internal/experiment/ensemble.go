package experiment

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Ensemble runs one scenario several times in parallel, each run in its
// own world with the seed seedStart+i.
type Ensemble struct {
	base      *Runner
	numRuns   int
	seedStart int64
}

func NewEnsemble(r *Runner, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: r, numRuns: numRuns, seedStart: seedStart}
}

// RunOutcome is one ensemble member. Result may be partial when Err is
// set.
type RunOutcome struct {
	Result *Result
	Err    error
}

// RunAll returns every outcome in run order.
func (e *Ensemble) RunAll(ctx context.Context, cfg Config) []RunOutcome {
	outcomes := make([]RunOutcome, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			r := NewRunner(e.base.registry, e.base.log)
			r.NewMetrics = e.base.NewMetrics
			res, err := r.Run(ctx, cfgCopy)
			outcomes[idx] = RunOutcome{Result: res, Err: err}
		}(i)
	}

	wg.Wait()
	return outcomes
}

// Run returns the results in run order, or the first error.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	outcomes := e.RunAll(ctx, cfg)
	results := make([]*Result, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			e.base.log.WithFields(logrus.Fields{"run": i, "seed": e.seedStart + int64(i)}).
				WithError(o.Err).Error("ensemble run failed")
			return nil, o.Err
		}
		results[i] = o.Result
	}
	return results, nil
}
