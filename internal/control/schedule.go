package control

import (
	"sort"

	"github.com/san-kum/dynbridge/internal/kin"
)

// Action is applied once when the run time reaches At.
type Action struct {
	At    float64
	Name  string
	Apply func(body *kin.Body)
}

// Schedule runs timed actions in order of time.
type Schedule struct {
	actions []Action
	next    int
}

func NewSchedule(actions ...Action) *Schedule {
	s := &Schedule{actions: append([]Action(nil), actions...)}
	sort.SliceStable(s.actions, func(i, j int) bool { return s.actions[i].At < s.actions[j].At })
	return s
}

func (s *Schedule) Compute(body *kin.Body, t float64) {
	for s.next < len(s.actions) && s.actions[s.next].At <= t {
		s.actions[s.next].Apply(body)
		s.next++
	}
}

func (s *Schedule) Reset() { s.next = 0 }

// Done reports whether every action has run.
func (s *Schedule) Done() bool { return s.next >= len(s.actions) }

// SwitchVacuum turns the named vacuum gripper on or off.
func SwitchVacuum(name string, on bool) func(*kin.Body) {
	return func(b *kin.Body) {
		for _, g := range kin.DevicesOf[*kin.VacuumGripper](b) {
			if g.Name() == name {
				g.SetOn(on)
			}
		}
	}
}

// SwitchNailer turns the named nail driver on or off.
func SwitchNailer(name string, on bool) func(*kin.Body) {
	return func(b *kin.Body) {
		for _, n := range kin.DevicesOf[*kin.NailDriver](b) {
			if n.Name() == name {
				n.SetOn(on)
			}
		}
	}
}

// SetTarget moves the target of a PID servo.
func SetTarget(p *PID, target float64) func(*kin.Body) {
	return func(*kin.Body) { p.Target = target }
}
