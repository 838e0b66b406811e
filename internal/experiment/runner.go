package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/device"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/metrics"
	"github.com/san-kum/dynbridge/internal/sim"
	"github.com/sirupsen/logrus"
)

// Config selects a scenario and how to run it.
type Config struct {
	Scenario string
	// Simulator defaults to config.DefaultSimulator; the scenario's own
	// adjustments are applied on a copy.
	Simulator *config.Simulator
	// Settings gate the device modules; nil uses config.DefaultSettings.
	Settings *config.Settings
	Dt       float64
	// Duration defaults to the scenario's.
	Duration float64
	// RecordEvery keeps one sample per that many steps.
	RecordEvery int
	Seed        int64
	// Params override the scenario's parameter defaults.
	Params Params
	// Perturb is the half width of the uniform noise added to free root
	// positions and joint displacements.
	Perturb float64
}

// Observer is notified after every step.
type Observer interface {
	OnStep(w *sim.World, t float64)
}

type Result struct {
	Scenario string
	Labels   []string
	Times    []float64
	States   [][]float64
	Controls [][]float64
	Metrics  map[string]float64
	Steps    int

	PhysicsTime   time.Duration
	CollisionTime time.Duration
	WallTime      time.Duration
}

// Runner builds a fresh world per run. It is not safe for concurrent use;
// Ensemble gives each goroutine its own Runner.
type Runner struct {
	registry *Registry
	log      *logrus.Logger

	// NewMetrics returns the metrics of one run; nil uses DefaultMetrics.
	NewMetrics func(cfg *config.Simulator) []metrics.Metric

	observers []Observer
}

func NewRunner(reg *Registry, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{registry: reg, log: log}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// DefaultMetrics is energy, energy drift, stability and control effort.
func DefaultMetrics(cfg *config.Simulator) []metrics.Metric {
	return []metrics.Metric{
		metrics.NewEnergy(cfg.Gravity),
		metrics.NewEnergyDrift(cfg.Gravity),
		metrics.NewStability(100),
		metrics.NewControlEffort(),
	}
}

func (r *Runner) validate(cfg *Config, sc *Scenario) error {
	if cfg.Dt <= 0 {
		cfg.Dt = sim.DefaultTimeStep
	}
	if cfg.Duration <= 0 {
		cfg.Duration = sc.Duration
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.RecordEvery < 1 {
		cfg.RecordEvery = 1
	}
	if cfg.Perturb < 0 {
		return fmt.Errorf("perturbation must not be negative, got %f", cfg.Perturb)
	}
	for k := range cfg.Params {
		if _, ok := sc.Params[k]; !ok {
			return fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParam, sc.Name, k)
		}
	}
	return nil
}

// Prepare builds the scenario into an initialized world. The caller owns
// the world and must Clear it.
func (r *Runner) Prepare(cfg *Config) (*sim.World, *Setup, error) {
	sc, err := r.registry.Get(cfg.Scenario)
	if err != nil {
		return nil, nil, err
	}
	if err := r.validate(cfg, sc); err != nil {
		return nil, nil, err
	}

	simCfg := config.DefaultSimulator()
	if cfg.Simulator != nil {
		simCfg = cfg.Simulator.Clone()
	}
	if sc.Configure != nil {
		sc.Configure(simCfg)
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}

	setup := sc.Build(cfg.Params)
	if setup == nil {
		return nil, nil, fmt.Errorf("%w: %s built no bodies", ErrNotSetup, sc.Name)
	}
	if cfg.Perturb > 0 {
		perturb(setup.Bodies, rand.New(rand.NewSource(cfg.Seed)), cfg.Perturb)
	}

	w := sim.NewWorld(simCfg, cfg.Dt, r.log)
	w.SetDevices(device.NewRegistryFromSettings(settings, r.log.WithField("scenario", sc.Name)))
	if !w.Initialize(setup.Bodies) {
		return nil, nil, fmt.Errorf("%w: %s", ErrInitialize, sc.Name)
	}
	for _, b := range setup.Bindings {
		b.Controller.Reset()
	}
	return w, setup, nil
}

// Run simulates one scenario. On cancellation the partial result is
// returned with the context error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	w, setup, err := r.Prepare(&cfg)
	if err != nil {
		return nil, err
	}
	defer w.Clear()
	w.InitializeThread()

	newMetrics := r.NewMetrics
	if newMetrics == nil {
		newMetrics = DefaultMetrics
	}
	ms := newMetrics(w.Config())

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	samples := steps/cfg.RecordEvery + 1
	rec := newRecorder(setup.Bodies)
	result := &Result{
		Scenario: cfg.Scenario,
		Labels:   rec.labels,
		Times:    make([]float64, 0, samples),
		States:   make([][]float64, 0, samples),
		Controls: make([][]float64, 0, samples),
		Metrics:  make(map[string]float64),
	}
	record := func() {
		result.Times = append(result.Times, w.Time())
		result.States = append(result.States, rec.state())
		result.Controls = append(result.Controls, rec.controls())
	}
	finish := func() {
		for _, m := range ms {
			result.Metrics[m.Name()] = m.Value()
		}
		result.Steps = w.Steps()
		result.PhysicsTime, result.CollisionTime = w.Timing()
	}

	record()
	start := time.Now()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			finish()
			result.WallTime = time.Since(start)
			return result, ctx.Err()
		default:
		}

		t := w.Time()
		for _, b := range setup.Bindings {
			b.Controller.Compute(b.Body, t)
		}
		w.StepAll()

		if !rec.valid() {
			finish()
			result.WallTime = time.Since(start)
			return result, &StepError{Step: i, Time: w.Time(), Wrapped: ErrInvalidState}
		}
		for _, m := range ms {
			m.Observe(setup.Bodies, w.Time())
		}
		for _, o := range r.observers {
			o.OnStep(w, w.Time())
		}
		if (i+1)%cfg.RecordEvery == 0 {
			record()
		}
	}
	result.WallTime = time.Since(start)
	finish()
	w.Finalize()
	return result, nil
}

func perturb(bodies []*kin.Body, rng *rand.Rand, amount float64) {
	noise := func() float64 { return (2*rng.Float64() - 1) * amount }
	for _, b := range bodies {
		if b.IsStaticModel() {
			continue
		}
		if root := b.RootLink(); root.JointType == kin.JointFree {
			root.P = root.P.Add(mgl64.Vec3{noise(), noise(), noise()})
		}
		for i := 0; i < b.NumJoints(); i++ {
			if j := b.Joint(i); j != nil && !j.JointType.IsTracked() {
				j.Q += noise()
			}
		}
		b.CalcForwardKinematics(false, false)
	}
}
