package experiment

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/control"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/models"
)

const floorSize = 10

// DefaultRegistry returns every built-in scenario.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range builtin() {
		r.Register(s)
	}
	return r
}

func builtin() []*Scenario {
	return []*Scenario{
		{
			Name:        "free_fall",
			Description: "a block dropped in empty space",
			Duration:    1,
			Build: func(p Params) *Setup {
				return &Setup{Bodies: []*kin.Body{
					models.NewBlock("block", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, 5}),
				}}
			},
		},
		{
			Name:        "box_on_floor",
			Description: "a block and a ball settling on the floor",
			Duration:    2,
			Build: func(p Params) *Setup {
				return &Setup{Bodies: []*kin.Body{
					models.NewFloor(floorSize),
					models.NewBlock("block", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, 0.3}),
					models.NewBall("ball", 0.5, 0.1, mgl64.Vec3{0.5, 0, 0.4}),
				}}
			},
		},
		{
			Name:        "pendulum",
			Description: "a damped pendulum released from one radian",
			Duration:    5,
			Params:      Params{"angle": 1, "damping": 0.1},
			Build: func(p Params) *Setup {
				pend := models.NewPendulum()
				pend.Angle = p.Get("angle", 1)
				pend.Damping = p.Get("damping", 0.1)
				return &Setup{Bodies: []*kin.Body{pend.Body()}}
			},
		},
		{
			Name:        "double_pendulum",
			Description: "an undamped double pendulum",
			Duration:    10,
			Params:      Params{"theta1": math.Pi / 2, "theta2": 0.5},
			Build: func(p Params) *Setup {
				d := models.NewDoublePendulum()
				d.Theta1 = p.Get("theta1", math.Pi/2)
				d.Theta2 = p.Get("theta2", 0.5)
				return &Setup{Bodies: []*kin.Body{d.Body()}}
			},
		},
		{
			Name:        "pendulum_servo",
			Description: "a PID servo holding the pendulum at 0.8 rad",
			Duration:    5,
			Params:      Params{"kp": 40, "ki": 40, "kd": 8, "target": 0.8},
			Build: func(p Params) *Setup {
				pend := models.NewPendulum()
				pend.Damping = 0
				b := pend.Body()
				pid := control.NewPID(0, p.Get("kp", 40), p.Get("ki", 40), p.Get("kd", 8), p.Get("target", 0.8))
				return &Setup{
					Bodies:   []*kin.Body{b},
					Bindings: []Binding{{Body: b, Controller: pid}},
				}
			},
		},
		{
			Name:        "pendulum_lqr",
			Description: "an LQR balancing the pendulum upright",
			Duration:    5,
			Params:      Params{"offset": 0.1},
			Build: func(p Params) *Setup {
				pend := models.NewPendulum()
				pend.Damping = 0
				pend.Angle = math.Pi - p.Get("offset", 0.1)
				b := pend.Body()
				return &Setup{
					Bodies:   []*kin.Body{b},
					Bindings: []Binding{{Body: b, Controller: control.NewPendulumLQR()}},
				}
			},
		},
		{
			Name:        "crawler",
			Description: "a tracked crawler driving straight",
			Duration:    3,
			Params:      Params{"left": 0.5, "right": 0.5},
			Build:       crawlerSetup(kin.JointTracked, 0.5, 0.5),
		},
		{
			Name:        "crawler_turn",
			Description: "a pseudo continuous track crawler turning on the spot",
			Duration:    3,
			Configure:   func(cfg *config.Simulator) { cfg.VelocityMode = true },
			Params:      Params{"left": 0.5, "right": -0.5},
			Build:       crawlerSetup(kin.JointPseudoContinuousTrack, 0.5, -0.5),
		},
		{
			Name:        "mecanum",
			Description: "a mecanum rover strafing sideways",
			Duration:    3,
			Params:      Params{"speed": 0.4},
			Build: func(p Params) *Setup {
				b := models.NewMecanumRover().Body()
				v := p.Get("speed", 0.4)
				drive := control.NewDrive(map[string]float64{
					"WHEEL_FL": v, "WHEEL_FR": -v, "WHEEL_RL": -v, "WHEEL_RR": v,
				})
				return &Setup{
					Bodies:   []*kin.Body{models.NewFloor(floorSize), b},
					Bindings: []Binding{{Body: b, Controller: drive}},
				}
			},
		},
		{
			Name:        "planar",
			Description: "a double pendulum and a tumbling block in 2D mode",
			Duration:    3,
			Configure:   func(cfg *config.Simulator) { cfg.Mode2D = true },
			Build: func(p Params) *Setup {
				d := models.NewDoublePendulum()
				d.Theta1 = 1
				block := models.NewBlock("block", 1, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{1, 0, 0.5})
				block.RootLink().R = mgl64.Rotate3DY(0.4)
				block.CalcForwardKinematics(false, false)
				return &Setup{Bodies: []*kin.Body{models.NewFloor(floorSize), d.Body(), block}}
			},
		},
		{
			Name:        "pick_and_place",
			Description: "a tool arm lifting a block by vacuum and putting it down",
			Duration:    4,
			Configure:   func(cfg *config.Simulator) { cfg.JointLimitMode = true },
			Params:      Params{"kp": 200, "ki": 20, "kd": 20},
			Build: func(p Params) *Setup {
				arm := models.NewToolArm()
				b := arm.Body()
				servo := control.NewPID(0, p.Get("kp", 200), p.Get("ki", 20), p.Get("kd", 20), 0)
				grip := touchDepth(arm, 0.1)
				schedule := control.NewSchedule(
					control.Action{At: 0, Name: "lower", Apply: control.SetTarget(servo, grip)},
					control.Action{At: 1, Name: "suck", Apply: control.SwitchVacuum(models.VacuumName, true)},
					control.Action{At: 1.5, Name: "lift", Apply: control.SetTarget(servo, 0.2)},
					control.Action{At: 2.5, Name: "lower", Apply: control.SetTarget(servo, grip)},
					control.Action{At: 3.2, Name: "release", Apply: control.SwitchVacuum(models.VacuumName, false)},
					control.Action{At: 3.4, Name: "retract", Apply: control.SetTarget(servo, 0)},
				)
				return &Setup{
					Bodies: []*kin.Body{
						models.NewFloor(floorSize),
						b,
						models.NewBlock("part", 0.2, mgl64.Vec3{0.1, 0.1, 0.1}, mgl64.Vec3{0, 0, 0.05}),
					},
					Bindings: []Binding{{Body: b, Controller: schedule}, {Body: b, Controller: servo}},
				}
			},
		},
		{
			Name:        "nailing",
			Description: "a tool arm nailing a plate to the floor",
			Duration:    3,
			Configure:   func(cfg *config.Simulator) { cfg.JointLimitMode = true },
			Params:      Params{"kp": 200, "ki": 20, "kd": 20},
			Build: func(p Params) *Setup {
				arm := models.NewToolArm()
				b := arm.Body()
				servo := control.NewPID(0, p.Get("kp", 200), p.Get("ki", 20), p.Get("kd", 20), 0)
				press := touchDepth(arm, 0.02)
				schedule := control.NewSchedule(
					control.Action{At: 0, Name: "arm", Apply: control.SwitchNailer(models.NailerName, true)},
					control.Action{At: 0, Name: "press", Apply: control.SetTarget(servo, press)},
					control.Action{At: 1.5, Name: "retract", Apply: control.SetTarget(servo, 0)},
				)
				return &Setup{
					Bodies: []*kin.Body{
						models.NewFloor(floorSize),
						b,
						models.NewBlock("plate", 0.3, mgl64.Vec3{0.3, 0.3, 0.02}, mgl64.Vec3{0, 0, 0.01}),
					},
					Bindings: []Binding{{Body: b, Controller: schedule}, {Body: b, Controller: servo}},
				}
			},
		},
		{
			Name:        "bipod",
			Description: "two legs closed into a loop at their feet",
			Duration:    2,
			Build: func(p Params) *Setup {
				return &Setup{Bodies: []*kin.Body{models.NewBipod().Body()}}
			},
		},
	}
}

func crawlerSetup(track kin.JointType, left, right float64) func(Params) *Setup {
	return func(p Params) *Setup {
		c := models.NewCrawler()
		c.TrackType = track
		b := c.Body()
		drive := control.NewDrive(map[string]float64{
			"TRACK_L": p.Get("left", left),
			"TRACK_R": p.Get("right", right),
		})
		return &Setup{
			Bodies:   []*kin.Body{models.NewFloor(floorSize), b},
			Bindings: []Binding{{Body: b, Controller: drive}},
		}
	}
}

// touchDepth is the hand displacement that brings the suction face slightly
// below a top surface at height top.
func touchDepth(arm *models.ToolArm, top float64) float64 {
	return arm.HandBottom(0) - top + 0.005
}
