package device

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/sirupsen/logrus"
)

const VacuumGripperModule = "VacuumGripper"

type gripper struct {
	mount
	dev      *kin.VacuumGripper
	joint    *dynamo.Fixed
	feedback dynamo.Feedback
	object   *dynamo.Body
}

func (g *gripper) gripping() bool { return g.joint != nil }

func (g *gripper) grip(w *dynamo.World, object *dynamo.Body) {
	j := w.CreateFixed(nil)
	j.Attach(g.body, object)
	j.SetFeedback(&g.feedback)
	g.joint = j
	g.object = object
}

func (g *gripper) release(w *dynamo.World) {
	if g.joint == nil {
		return
	}
	g.joint.SetFeedback(nil)
	w.DestroyJoint(g.joint)
	g.joint = nil
	g.object = nil
	g.feedback = dynamo.Feedback{}
}

// exceeded reports which holding limit the last joint reaction broke, or
// "" if none. The reaction acting on the object is split into the pull
// away from the face, the shear along it and the peel torque.
func (g *gripper) exceeded() (string, float64, float64) {
	n := g.worldNormal()
	f := g.feedback.F2
	tau := g.feedback.T2
	pull := -f.Dot(n)
	if pull > g.dev.MaxPullForce {
		return "pull force", pull, g.dev.MaxPullForce
	}
	shear := f.Sub(n.Mul(f.Dot(n))).Len()
	if shear > g.dev.MaxShearForce {
		return "shear force", shear, g.dev.MaxShearForce
	}
	peel := tau.Sub(n.Mul(tau.Dot(n))).Len()
	if peel > g.dev.MaxPeelTorque {
		return "peel torque", peel, g.dev.MaxPeelTorque
	}
	return "", 0, 0
}

// VacuumGrippers welds objects pressed against an active gripper's face
// and lets them go when the gripper is switched off or a holding limit is
// exceeded.
type VacuumGrippers struct {
	Dot      float64
	Distance float64

	log      *logrus.Entry
	grippers *orderedmap.OrderedMap[*dynamo.Body, *gripper]
}

func NewVacuumGrippers(dot, distance float64, log *logrus.Entry) *VacuumGrippers {
	return &VacuumGrippers{
		Dot:      dot,
		Distance: distance,
		log:      logger(log).WithField("device", VacuumGripperModule),
		grippers: orderedmap.NewOrderedMap[*dynamo.Body, *gripper](),
	}
}

func (v *VacuumGrippers) Name() string { return VacuumGripperModule }

func (v *VacuumGrippers) Empty() bool { return v.grippers.Len() == 0 }

func (v *VacuumGrippers) Attach(b *dynamo.Body, link *kin.Link) bool {
	if b == nil {
		return false
	}
	taken := false
	for _, d := range kin.DevicesOf[*kin.VacuumGripper](link.Body()) {
		if d.Link() != link {
			continue
		}
		v.grippers.Set(b, &gripper{mount: newMount(b, link, d.PLocal, d.Normal), dev: d})
		taken = true
	}
	return taken
}

func (v *VacuumGrippers) find(b1, b2 *dynamo.Body) (*gripper, *dynamo.Body, bool) {
	if g, ok := v.grippers.Get(b1); ok {
		return g, b2, true
	}
	if g, ok := v.grippers.Get(b2); ok {
		return g, b1, false
	}
	return nil, nil, false
}

func (v *VacuumGrippers) Near(w *dynamo.World, b1, b2 *dynamo.Body, contacts []dynamo.ContactGeom) bool {
	g, object, first := v.find(b1, b2)
	if g == nil {
		return false
	}
	if !g.dev.On() {
		if g.gripping() {
			v.log.WithField("name", g.dev.Name()).Info("released")
			g.release(w)
		}
		return false
	}
	if !g.gripping() {
		if n := g.countFacing(contacts, first, v.Dot, v.Distance); n > 0 {
			g.grip(w, object)
			v.log.WithFields(logrus.Fields{"name": g.dev.Name(), "contacts": n}).Info("gripped")
		}
		return false
	}
	if g.object == object {
		if what, val, limit := g.exceeded(); what != "" {
			v.log.WithFields(logrus.Fields{"name": g.dev.Name(), "value": val, "limit": limit}).
				Infof("%s limit exceeded, released", what)
			g.release(w)
		}
	}
	return true
}

// PostStep releases grippers that were switched off while not touching
// anything.
func (v *VacuumGrippers) PostStep(w *dynamo.World, _ float64) {
	for el := v.grippers.Front(); el != nil; el = el.Next() {
		if g := el.Value; g.gripping() && !g.dev.On() {
			g.release(w)
		}
	}
}

func (v *VacuumGrippers) Reset() {
	v.grippers = orderedmap.NewOrderedMap[*dynamo.Body, *gripper]()
}

// IsGripping reports whether any gripper currently holds object.
func (v *VacuumGrippers) IsGripping(object *dynamo.Body) bool {
	for el := v.grippers.Front(); el != nil; el = el.Next() {
		if el.Value.gripping() && el.Value.object == object {
			return true
		}
	}
	return false
}

// SetAllOn switches every gripper, notifying only those that change.
func (v *VacuumGrippers) SetAllOn(on bool) {
	for el := v.grippers.Front(); el != nil; el = el.Next() {
		el.Value.dev.SetOn(on)
	}
}

// Reaction returns the last joint reaction on the object held by the
// gripper mounted on b.
func (v *VacuumGrippers) Reaction(b *dynamo.Body) (f, tau mgl64.Vec3, ok bool) {
	g, found := v.grippers.Get(b)
	if !found || !g.gripping() {
		return f, tau, false
	}
	return g.feedback.F2, g.feedback.T2, true
}
