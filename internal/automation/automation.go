// Package automation runs batches of experiments: scripted plans loaded
// from YAML, parameter sweeps and Monte Carlo trials.
package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Plan is a scripted sequence of runs.
type Plan struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []PlanStep `yaml:"steps"`
}

// PlanStep is a single run of a plan.
type PlanStep struct {
	Scenario string             `yaml:"scenario"`
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Seed     int64              `yaml:"seed"`
	Perturb  float64            `yaml:"perturb"`
	Params   map[string]float64 `yaml:"params"`
	Save     bool               `yaml:"save"`
}

// LoadPlan loads a plan from a YAML file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan %s has no steps", path)
	}
	return &plan, nil
}

// Config turns the step into a runner configuration.
func (s PlanStep) Config(settings *config.Settings) (experiment.Config, error) {
	cfg := experiment.Config{
		Scenario: s.Scenario,
		Settings: settings,
		Dt:       s.Dt,
		Duration: s.Duration,
		Seed:     s.Seed,
		Perturb:  s.Perturb,
		Params:   experiment.Params(s.Params),
	}
	if s.Preset != "" {
		sim, err := config.GetPreset(s.Preset)
		if err != nil {
			return cfg, err
		}
		cfg.Simulator = sim
	}
	return cfg, nil
}

// SaveFunc stores the result of a step and returns its run id.
type SaveFunc func(step PlanStep, cfg experiment.Config, result *experiment.Result) (string, error)

// Outcome is the result of one plan step.
type Outcome struct {
	Step   PlanStep
	Result *experiment.Result
	RunID  string
}

// RunPlan executes the steps in order and stops at the first failure.
// Steps marked Save are passed to save, which may be nil.
func RunPlan(ctx context.Context, plan *Plan, r *experiment.Runner, settings *config.Settings, save SaveFunc, log *logrus.Logger) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(plan.Steps))

	for i, step := range plan.Steps {
		log.WithFields(logrus.Fields{"plan": plan.Name, "step": i + 1, "of": len(plan.Steps), "scenario": step.Scenario}).
			Info("running plan step")

		cfg, err := step.Config(settings)
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		result, err := r.Run(ctx, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := Outcome{Step: step, Result: result}
		if step.Save && save != nil {
			if out.RunID, err = save(step, cfg, result); err != nil {
				return outcomes, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

// ParameterSweep runs one scenario across evenly spaced values of one
// parameter.
type ParameterSweep struct {
	Scenario  string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
	Dt        float64
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState []float64
	Metrics    map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, r *experiment.Runner, log *logrus.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		result, err := r.Run(ctx, experiment.Config{
			Scenario: sweep.Scenario,
			Dt:       sweep.Dt,
			Duration: sweep.Duration,
			Params:   experiment.Params{sweep.ParamName: paramVal},
		})
		if err != nil {
			return results, err
		}

		var final []float64
		if len(result.States) > 0 {
			final = result.States[len(result.States)-1]
		}
		results = append(results, SweepResult{ParamValue: paramVal, FinalState: final, Metrics: result.Metrics})

		log.WithFields(logrus.Fields{"step": i + 1, "of": sweep.NumSteps, sweep.ParamName: paramVal}).Debug("sweep")
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Scenario     string
	Perturbation float64
	NumTrials    int
	Duration     float64
	Dt           float64
	Seed         int64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	FinalState []float64
	Stable     bool // Did simulation remain bounded?
}

// RunMonteCarlo executes NumTrials perturbed runs in parallel. A trial
// whose state diverges counts as unstable instead of failing the batch.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, r *experiment.Runner) ([]MonteCarloResult, error) {
	e := experiment.NewEnsemble(r, cfg.NumTrials, cfg.Seed)
	runs := e.RunAll(ctx, experiment.Config{
		Scenario: cfg.Scenario,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Perturb:  cfg.Perturbation,
	})

	results := make([]MonteCarloResult, 0, len(runs))
	for i, run := range runs {
		if run.Err != nil && !experiment.IsDivergence(run.Err) {
			return nil, run.Err
		}
		res := MonteCarloResult{TrialID: i, Seed: cfg.Seed + int64(i), Stable: run.Err == nil}
		if run.Result != nil && len(run.Result.States) > 0 {
			res.FinalState = run.Result.States[len(run.Result.States)-1]
			for _, v := range res.FinalState {
				if math.Abs(v) > 1e6 {
					res.Stable = false
					break
				}
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
