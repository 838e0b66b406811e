package experiment

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/metrics"
	"github.com/san-kum/dynbridge/internal/models"
	"github.com/san-kum/dynbridge/internal/sim"
	"github.com/sirupsen/logrus"
)

func quietRunner(reg *Registry) *Runner {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRunner(reg, log)
}

func TestRegistryKeepsOrder(t *testing.T) {
	reg := DefaultRegistry()
	names := reg.Names()
	want := []string{"free_fall", "box_on_floor", "pendulum"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
	if len(reg.List()) != len(names) {
		t.Errorf("List has %d scenarios, Names %d", len(reg.List()), len(names))
	}

	if _, err := reg.Get("warp_drive"); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("Get unknown: got %v, want ErrUnknownScenario", err)
	}
}

func TestEveryScenarioRuns(t *testing.T) {
	reg := DefaultRegistry()
	for _, sc := range reg.List() {
		t.Run(sc.Name, func(t *testing.T) {
			r := quietRunner(reg)
			res, err := r.Run(context.Background(), Config{Scenario: sc.Name, Duration: 0.05})
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if res.Steps != 50 {
				t.Errorf("steps = %d, want 50", res.Steps)
			}
			if len(res.Times) != 51 || len(res.States) != 51 {
				t.Errorf("samples = %d times, %d states, want 51", len(res.Times), len(res.States))
			}
			for i, x := range res.States {
				if len(x) != len(res.Labels) {
					t.Fatalf("state %d has %d values for %d labels", i, len(x), len(res.Labels))
				}
			}
			for _, name := range []string{"energy", "energy_drift", "stability", "control_effort"} {
				if _, ok := res.Metrics[name]; !ok {
					t.Errorf("metric %q missing", name)
				}
			}
		})
	}
}

func TestRecordEvery(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	res, err := r.Run(context.Background(), Config{Scenario: "free_fall", Duration: 0.1, RecordEvery: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Times) != 11 {
		t.Fatalf("got %d samples, want 11", len(res.Times))
	}
	if math.Abs(res.Times[10]-0.1) > 1e-9 {
		t.Errorf("last sample at %f, want 0.1", res.Times[10])
	}
}

func TestFreeFallFollowsGravity(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	res, err := r.Run(context.Background(), Config{Scenario: "free_fall", Duration: 0.5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	n := float64(res.Steps)
	h := sim.DefaultTimeStep
	want := 5 - config.DefaultGravityAcceleration*h*h*n*(n+1)/2
	z := res.States[len(res.States)-1][2]
	if math.Abs(z-want) > 1e-6 {
		t.Errorf("z = %f, want %f", z, want)
	}
}

func TestCancelledRunReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := quietRunner(DefaultRegistry())
	res, err := r.Run(ctx, Config{Scenario: "pendulum"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if res == nil || len(res.Times) != 1 {
		t.Fatalf("want the initial sample only, got %+v", res)
	}
}

type nanTorque struct{}

func (nanTorque) Compute(body *kin.Body, t float64) { body.Joint(0).U = math.NaN() }
func (nanTorque) Reset()                            {}

func TestInvalidStateStepError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Scenario{
		Name:     "diverge",
		Duration: 1,
		Build: func(Params) *Setup {
			p := models.NewPendulum()
			p.Damping = 0
			b := p.Body()
			return &Setup{Bodies: []*kin.Body{b}, Bindings: []Binding{{Body: b, Controller: nanTorque{}}}}
		},
	})

	res, err := quietRunner(reg).Run(context.Background(), Config{Scenario: "diverge"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a StepError", err)
	}
	if se.Step != 0 {
		t.Errorf("failed at step %d, want 0", se.Step)
	}
	if res == nil || res.Steps != 1 {
		t.Errorf("want a partial result after one step, got %+v", res)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	bad := config.DefaultSimulator()
	bad.StepMode = "Leapfrog"

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown scenario", Config{Scenario: "nope"}, ErrUnknownScenario},
		{"bad step mode", Config{Scenario: "pendulum", Simulator: bad}, ErrInitialize},
		{"unknown param", Config{Scenario: "pendulum", Params: Params{"mass": 2}}, ErrUnknownParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietRunner(DefaultRegistry()).Run(context.Background(), tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	_, err := quietRunner(DefaultRegistry()).Run(context.Background(), Config{Scenario: "pendulum", Perturb: -1})
	if err == nil {
		t.Error("negative perturbation accepted")
	}
}

func TestScenarioConfigureOnCopy(t *testing.T) {
	base := config.DefaultSimulator()
	r := quietRunner(DefaultRegistry())
	cfg := Config{Scenario: "planar", Simulator: base}
	w, _, err := r.Prepare(&cfg)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	defer w.Clear()

	if !w.Config().Mode2D {
		t.Error("planar scenario did not enable 2D mode")
	}
	if base.Mode2D {
		t.Error("caller's simulator configuration was modified")
	}
	if cfg.Dt != sim.DefaultTimeStep {
		t.Errorf("dt = %f, want default", cfg.Dt)
	}
}

func TestPerturbIsSeeded(t *testing.T) {
	initial := func(seed int64) float64 {
		r := quietRunner(DefaultRegistry())
		cfg := Config{Scenario: "free_fall", Duration: 0.001, Seed: seed, Perturb: 0.1}
		res, err := r.Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return res.States[0][2]
	}

	a, b, c := initial(1), initial(1), initial(2)
	if a != b {
		t.Errorf("same seed gave %f and %f", a, b)
	}
	if a == c {
		t.Errorf("different seeds gave the same start %f", a)
	}
	if math.Abs(a-5) > 0.1 {
		t.Errorf("perturbed start %f outside the noise band", a)
	}
}

func TestCustomMetrics(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	r.NewMetrics = func(cfg *config.Simulator) []metrics.Metric {
		return []metrics.Metric{metrics.NewEnergy(cfg.Gravity)}
	}
	res, err := r.Run(context.Background(), Config{Scenario: "free_fall", Duration: 0.01})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Metrics) != 1 {
		t.Errorf("got metrics %v, want energy only", res.Metrics)
	}
}

type stepCounter struct{ n int }

func (c *stepCounter) OnStep(w *sim.World, t float64) { c.n++ }

func TestObserversSeeEveryStep(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	c := &stepCounter{}
	r.AddObserver(c)
	if _, err := r.Run(context.Background(), Config{Scenario: "pendulum", Duration: 0.02}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if c.n != 20 {
		t.Errorf("observer saw %d steps, want 20", c.n)
	}
}

func TestServoReachesTarget(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	res, err := r.Run(context.Background(), Config{Scenario: "pendulum_servo", RecordEvery: 100})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	q := res.States[len(res.States)-1][3]
	if math.Abs(q-0.8) > 0.05 {
		t.Errorf("servo settled at %f, want 0.8", q)
	}
}

func TestEnsemble(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	e := NewEnsemble(r, 4, 10)
	results, err := e.Run(context.Background(), Config{Scenario: "free_fall", Duration: 0.05, Perturb: 0.2})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	seen := map[float64]bool{}
	for i, res := range results {
		if res.Steps != 50 {
			t.Errorf("run %d took %d steps", i, res.Steps)
		}
		seen[res.States[0][2]] = true
	}
	if len(seen) != 4 {
		t.Errorf("runs did not start from distinct states: %v", seen)
	}
}

func TestEnsemblePropagatesErrors(t *testing.T) {
	e := NewEnsemble(quietRunner(DefaultRegistry()), 2, 0)
	if _, err := e.Run(context.Background(), Config{Scenario: "missing"}); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("got %v, want ErrUnknownScenario", err)
	}
}

func TestRecorderLabels(t *testing.T) {
	p := models.NewPendulum().Body()
	rec := newRecorder([]*kin.Body{models.NewFloor(1), p})
	want := []string{"pendulum.x", "pendulum.y", "pendulum.z", "pendulum.ARM.q", "pendulum.ARM.dq"}
	if len(rec.labels) != len(want) {
		t.Fatalf("labels = %v, want %v", rec.labels, want)
	}
	for i := range want {
		if rec.labels[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, rec.labels[i], want[i])
		}
	}

	p.RootLink().V = mgl64.Vec3{math.Inf(1), 0, 0}
	if rec.valid() {
		t.Error("infinite velocity reported valid")
	}
}

func TestParamsOverrideDefaults(t *testing.T) {
	r := quietRunner(DefaultRegistry())
	res, err := r.Run(context.Background(), Config{
		Scenario: "pendulum",
		Duration: 0.001,
		Params:   Params{"angle": 0.3},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if q := res.States[0][3]; math.Abs(q-0.3) > 1e-9 {
		t.Errorf("initial angle = %f, want 0.3", q)
	}

	if got := (Params{}).Get("kp", 7); got != 7 {
		t.Errorf("missing key gave %f, want the default", got)
	}
}

func TestModelScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.yaml")
	src := `
name: crate
links:
  - name: BASE
    jointType: free
    translation: [0, 0, 1]
    mass: 2
    elements:
      - type: box
        size: [0.2, 0.2, 0.2]
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := ModelScenario(path, kin.NewYAMLLoader(), 0.2)
	if err != nil {
		t.Fatalf("model scenario: %v", err)
	}
	if sc.Name != "crate" {
		t.Errorf("expected name from file, got %q", sc.Name)
	}

	reg := NewRegistry()
	reg.Register(sc)
	result, err := quietRunner(reg).Run(context.Background(), Config{Scenario: "crate", Dt: 0.001})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	z := -1
	for i, l := range result.Labels {
		if l == "crate.z" {
			z = i
		}
	}
	if z < 0 {
		t.Fatalf("no crate.z column in %v", result.Labels)
	}
	last := result.States[len(result.States)-1][z]
	if last >= 1 || last < 0.7 {
		t.Errorf("expected the crate to fall about 0.2 m, z = %f", last)
	}
}

func TestModelScenarioMissingFile(t *testing.T) {
	if _, err := ModelScenario(filepath.Join(t.TempDir(), "none.yaml"), kin.NewYAMLLoader(), 1); err == nil {
		t.Error("expected an error for a missing file")
	}
}
