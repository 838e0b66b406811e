package sim_test

import (
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/integrators"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/models"
	"github.com/san-kum/dynbridge/internal/sim"
	"github.com/sirupsen/logrus"
)

const h = sim.DefaultTimeStep

func newWorld(setup func(*config.Simulator), bodies ...*kin.Body) *sim.World {
	cfg := config.DefaultSimulator()
	if setup != nil {
		setup(cfg)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	w := sim.NewWorld(cfg, h, log)
	Expect(w.Initialize(bodies)).To(BeTrue())
	return w
}

func steps(w *sim.World, n int) {
	for i := 0; i < n; i++ {
		Expect(w.StepAll()).To(BeTrue())
	}
}

var _ = Describe("World", func() {
	g := config.DefaultGravityAcceleration

	DescribeTable("free fall",
		func(setup func(*config.Simulator)) {
			block := models.NewBlock("crate", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, 5})
			w := newWorld(setup, block)

			const n = 200
			steps(w, n)

			root := block.RootLink()
			Expect(w.Steps()).To(Equal(n))
			Expect(w.Time()).To(BeNumerically("~", n*h, 1e-12))
			Expect(root.V[2]).To(BeNumerically("~", -g*n*h, 1e-6))
			Expect(root.V[0]).To(BeNumerically("~", 0, 1e-9))
			Expect(root.V[1]).To(BeNumerically("~", 0, 1e-9))
			Expect(root.P[2]).To(BeNumerically("~", 5-g*h*h*n*(n+1)/2, 1e-6))
		},
		Entry("direct basis", nil),
		Entry("2D mode", func(c *config.Simulator) { c.Mode2D = true }),
		Entry("big matrix stepper", func(c *config.Simulator) { c.StepMode = integrators.ModeBigMatrix }),
	)

	DescribeTable("a block resting on the floor",
		func(setup func(*config.Simulator)) {
			block := models.NewBlock("crate", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, 0.1})
			w := newWorld(setup, models.NewFloor(4), block)

			steps(w, 1000)

			root := block.RootLink()
			Expect(root.P[2]).To(BeNumerically("~", 0.1, 0.01))
			Expect(root.V.Len()).To(BeNumerically("<", 0.05))
			physics, detection := w.Timing()
			Expect(physics).To(BeNumerically(">=", detection))
		},
		Entry("built-in collision", nil),
		Entry("external detector", func(c *config.Simulator) { c.UseWorldCollision = true }),
	)

	It("leaves static bodies untouched", func() {
		floor := models.NewFloor(4)
		w := newWorld(nil, floor)
		steps(w, 10)
		Expect(floor.RootLink().P).To(Equal(mgl64.Vec3{}))
		Expect(w.Bodies()[0].IsStatic()).To(BeTrue())
	})

	Describe("a pendulum", func() {
		It("swings to the mirrored angle", func() {
			p := models.NewPendulum()
			p.Damping = 0
			p.Angle = 0.5
			body := p.Body()
			w := newWorld(nil, body)

			arm := body.Joint(0)
			lo, hi := arm.Q, arm.Q
			for i := 0; i < 2000; i++ {
				w.StepAll()
				lo = math.Min(lo, arm.Q)
				hi = math.Max(hi, arm.Q)
			}
			Expect(lo).To(BeNumerically("<", -0.4))
			Expect(hi).To(BeNumerically("<", 0.55))
		})

		It("stays within its joint limits", func() {
			p := models.NewPendulum()
			p.Damping = 0
			p.Angle = 0.1
			body := p.Body()
			arm := body.Joint(0)
			arm.QLower, arm.QUpper = -0.1, 0.1
			w := newWorld(func(c *config.Simulator) { c.JointLimitMode = true }, body)

			for i := 0; i < 1000; i++ {
				w.StepAll()
				Expect(math.Abs(arm.Q)).To(BeNumerically("<", 0.15))
			}
		})

		DescribeTable("holds its joint limits under sustained actuation",
			func(mode string, iterations int, velocity bool, tol float64) {
				p := models.NewPendulum()
				p.Damping = 0
				p.Angle = 0
				body := p.Body()
				arm := body.Joint(0)
				arm.QLower, arm.QUpper = -0.3, 0.3
				w := newWorld(func(c *config.Simulator) {
					c.JointLimitMode = true
					c.VelocityMode = velocity
					c.StepMode = mode
					c.NumIterations = iterations
				}, body)

				peak := 0.0
				for i := 0; i < 1000; i++ {
					if velocity {
						arm.Dq = 2
					} else {
						arm.U = 50
					}
					Expect(w.StepAll()).To(BeTrue())
					peak = math.Max(peak, math.Abs(arm.Q))
				}
				Expect(peak).To(BeNumerically("<", 0.3+tol))
				Expect(arm.Q).To(BeNumerically("~", 0.3, tol))
			},
			Entry("torque, iterative, 50 iterations", integrators.ModeIterative, 50, false, 0.05),
			Entry("torque, iterative, 500 iterations", integrators.ModeIterative, 500, false, 0.01),
			Entry("torque, big matrix", integrators.ModeBigMatrix, 50, false, 0.002),
			Entry("velocity, iterative, 50 iterations", integrators.ModeIterative, 50, true, 0.05),
			Entry("velocity, iterative, 500 iterations", integrators.ModeIterative, 500, true, 0.01),
			Entry("velocity, big matrix", integrators.ModeBigMatrix, 50, true, 0.002),
		)

		It("is slowed by its damping", func() {
			p := models.NewPendulum()
			p.Damping = 2
			p.Angle = 0.5
			body := p.Body()
			w := newWorld(nil, body)

			steps(w, 3000)
			Expect(math.Abs(body.Joint(0).Q)).To(BeNumerically("<", 0.3))
		})
	})

	It("keeps a loop-closed bipod together", func() {
		bp := models.NewBipod()
		body := bp.Body()
		w := newWorld(nil, body)

		steps(w, 500)
		Expect(bp.Foot(body, 0).Sub(bp.Foot(body, 1)).Len()).To(BeNumerically("<", 0.01))
	})

	Describe("2D mode", func() {
		It("keeps bodies in the x-z plane", func() {
			block := models.NewBlock("crate", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, 2})
			block.RootLink().R = mgl64.Rotate3DX(0.2).Mul3(mgl64.Rotate3DY(0.3))
			w := newWorld(func(c *config.Simulator) { c.Mode2D = true }, block)
			Expect(w.Flipped()).To(BeTrue())

			steps(w, 100)

			root := block.RootLink()
			Expect(root.P[1]).To(BeNumerically("~", 0, 1e-6))
			Expect(root.R.At(1, 1)).To(BeNumerically("~", 1, 1e-9))
			Expect(root.W[0]).To(BeNumerically("~", 0, 1e-9))
			Expect(root.W[2]).To(BeNumerically("~", 0, 1e-9))
			Expect(root.P[2]).To(BeNumerically("<", 2))
		})
	})

	Describe("a crawler", func() {
		DescribeTable("drives along its tracks",
			func(jt kin.JointType) {
				c := models.NewCrawler()
				c.TrackType = jt
				body := c.Body()
				w := newWorld(nil, models.NewFloor(10), body)
				for _, name := range []string{"TRACK_L", "TRACK_R"} {
					l := body.LinkByName(name)
					l.U, l.Dq = 0.5, 0.5
				}

				steps(w, 2000)

				root := body.RootLink()
				Expect(math.Abs(root.P[0])).To(BeNumerically(">", 0.05))
				Expect(math.Abs(root.P[1])).To(BeNumerically("<", 0.05))
				Expect(root.P[2]).To(BeNumerically(">", 0.1))
			},
			Entry("tracked", kin.JointTracked),
			Entry("pseudo continuous track", kin.JointPseudoContinuousTrack),
		)

		It("stays put with idle tracks", func() {
			body := models.NewCrawler().Body()
			w := newWorld(nil, models.NewFloor(10), body)

			steps(w, 1000)

			Expect(math.Abs(body.RootLink().P[0])).To(BeNumerically("<", 0.01))
		})
	})

	Describe("force sensors", func() {
		It("report the weight carried by a held joint", func() {
			arm := models.NewToolArm()
			body := arm.Body()
			w := newWorld(func(c *config.Simulator) { c.VelocityMode = true }, body)

			steps(w, 100)

			fs := kin.DevicesOf[*kin.ForceSensor](body)[0]
			Expect(math.Abs(fs.F[2])).To(BeNumerically("~", arm.HandMass*g, 0.2))
			Expect(fs.F[0]).To(BeNumerically("~", 0, 1e-3))
			Expect(fs.F[1]).To(BeNumerically("~", 0, 1e-3))
		})
	})

	It("rebuilds cleanly on a second Initialize", func() {
		block := models.NewBlock("crate", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, 1})
		w := newWorld(nil, block)
		steps(w, 50)

		Expect(w.Initialize([]*kin.Body{block})).To(BeTrue())
		Expect(w.Steps()).To(Equal(0))
		Expect(w.Bodies()).To(HaveLen(1))
		Expect(block.RootLink().V).To(Equal(mgl64.Vec3{}))
		Expect(w.Solver().Bodies()).To(HaveLen(1))
	})

	It("rejects an invalid configuration", func() {
		cfg := config.DefaultSimulator()
		cfg.StepMode = "Leapfrog"
		log := logrus.New()
		log.SetOutput(io.Discard)
		w := sim.NewWorld(cfg, h, log)
		Expect(w.Initialize(nil)).To(BeFalse())
	})
})
