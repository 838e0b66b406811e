package control

import (
	"math"
	"testing"

	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/models"
)

func TestNone(t *testing.T) {
	b := models.NewPendulum().Body()
	b.Joint(0).U = 0.5
	NewNone().Compute(b, 0)

	if b.Joint(0).U != 0.5 {
		t.Errorf("None should leave commands alone, got %f", b.Joint(0).U)
	}
}

func TestPID(t *testing.T) {
	b := models.NewPendulum().Body()
	b.Joint(0).Q = 1.0

	ctrl := NewPID(0, 10.0, 0.1, 5.0, 0.0)
	ctrl.Compute(b, 0.0)
	if b.Joint(0).U >= 0 {
		t.Error("PID should output negative control for positive error")
	}

	b.Joint(0).Q = 0.5
	ctrl.Compute(b, 0.1)
	// error shrank, so the derivative term pushes back
	if want := 10.0*-0.5 + 0.1*-0.05 + 5.0*5.0; math.Abs(b.Joint(0).U-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, b.Joint(0).U)
	}
}

func TestPIDOutOfRange(t *testing.T) {
	b := models.NewPendulum().Body()
	NewPID(3, 1, 0, 0, 1).Compute(b, 0)
	if b.Joint(0).U != 0 {
		t.Error("servo of a missing joint should not write commands")
	}
}

func TestPIDParams(t *testing.T) {
	p := NewPID(0, 1, 2, 3, 4)
	p.SetParam("Kd", 7)
	p.SetParam("Target", -1)
	params := p.GetParams()
	if params["Kd"] != 7 || params["Target"] != -1 || params["Kp"] != 1 {
		t.Errorf("unexpected params %v", params)
	}
}

func TestLQR(t *testing.T) {
	b := models.NewPendulum().Body()
	ctrl := NewLQR([][]float64{{1.0, 2.0}}, []float64{0, 0})

	ctrl.Compute(b, 0)
	if b.Joint(0).U != 0 {
		t.Errorf("expected zero control at target, got %f", b.Joint(0).U)
	}

	b.Joint(0).Q = 1.0
	ctrl.Compute(b, 0)
	if b.Joint(0).U != -1 {
		t.Errorf("expected -1, got %f", b.Joint(0).U)
	}
}

func TestPendulumLQR(t *testing.T) {
	b := models.NewPendulum().Body()
	b.Joint(0).Q = math.Pi - 0.1

	NewPendulumLQR().Compute(b, 0)
	if b.Joint(0).U <= 0 {
		t.Errorf("expected a push toward upright, got %f", b.Joint(0).U)
	}
}

func TestDrive(t *testing.T) {
	b := models.NewCrawler().Body()
	d := NewDrive(map[string]float64{"TRACK_L": 0.3, "CHASSIS": 1})
	d.Set("TRACK_R", -0.3)
	d.Compute(b, 0)

	if l := b.LinkByName("TRACK_L"); l.U != 0.3 || l.Dq != 0.3 {
		t.Errorf("left track = %f/%f", l.U, l.Dq)
	}
	if l := b.LinkByName("TRACK_R"); l.U != -0.3 {
		t.Errorf("right track = %f", l.U)
	}
	if b.RootLink().U != 0 {
		t.Error("chassis is not a track")
	}
}

func TestSchedule(t *testing.T) {
	arm := models.NewToolArm()
	b := arm.Body()
	pid := NewPID(0, 1, 0, 0, 0)
	s := NewSchedule(
		Action{At: 0.5, Name: "release", Apply: SwitchVacuum(models.VacuumName, false)},
		Action{At: 0.1, Name: "grip", Apply: SwitchVacuum(models.VacuumName, true)},
		Action{At: 0.2, Name: "lift", Apply: SetTarget(pid, 0.4)},
	)
	vac := kin.DevicesOf[*kin.VacuumGripper](b)[0]

	s.Compute(b, 0)
	if vac.On() {
		t.Error("nothing should run before its time")
	}
	s.Compute(b, 0.3)
	if !vac.On() || pid.Target != 0.4 {
		t.Errorf("expected grip and lift, got on=%v target=%f", vac.On(), pid.Target)
	}
	s.Compute(b, 1)
	if vac.On() || !s.Done() {
		t.Error("expected release and a finished schedule")
	}

	s.Reset()
	if s.Done() {
		t.Error("reset schedule should run again")
	}
}
