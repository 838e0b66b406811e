package dynamo

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

type World struct {
	gravity mgl64.Vec3
	erp     float64
	cfm     float64

	contactLayer     float64
	maxCorrectingVel float64

	bodies []*Body
	joints []Joint

	rng     *rand.Rand
	problem Problem
	ctx     rowContext

	threadReady bool
}

func NewWorld() *World {
	return &World{
		erp:              0.2,
		cfm:              1e-10,
		maxCorrectingVel: math.Inf(1),
		rng:              rand.New(rand.NewSource(0)),
	}
}

func (w *World) SetGravity(g mgl64.Vec3) { w.gravity = g }
func (w *World) Gravity() mgl64.Vec3     { return w.gravity }

func (w *World) SetERP(erp float64) { w.erp = erp }
func (w *World) ERP() float64       { return w.erp }

func (w *World) SetCFM(cfm float64) { w.cfm = cfm }
func (w *World) CFM() float64       { return w.cfm }

// SetContactSurfaceLayer sets the penetration depth contacts are allowed to
// keep without correction.
func (w *World) SetContactSurfaceLayer(d float64) { w.contactLayer = d }
func (w *World) ContactSurfaceLayer() float64     { return w.contactLayer }

// SetContactMaxCorrectingVel caps the velocity a contact may use to push
// penetrating bodies apart. Inf disables the cap.
func (w *World) SetContactMaxCorrectingVel(v float64) { w.maxCorrectingVel = v }
func (w *World) ContactMaxCorrectingVel() float64     { return w.maxCorrectingVel }

// SetRandomSeed reseeds the generator steppers use to reorder rows.
func (w *World) SetRandomSeed(seed int64) { w.rng = rand.New(rand.NewSource(seed)) }

// InitializeThread prepares per-goroutine solver scratch space. It is
// idempotent.
func (w *World) InitializeThread() {
	if w.threadReady {
		return
	}
	w.problem.Rand = w.rng
	w.threadReady = true
}

func (w *World) CreateBody() *Body {
	b := newBody(w)
	b.index = len(w.bodies)
	w.bodies = append(w.bodies, b)
	return b
}

// DestroyBody removes b and detaches it from every joint that referenced
// it. Those joints stay in the world acting against the environment.
func (w *World) DestroyBody(b *Body) {
	if b == nil || b.index < 0 {
		return
	}
	if b.world != w {
		panic(ErrForeignBody)
	}
	for _, j := range w.joints {
		jb := j.base()
		if jb.b1 == b {
			jb.b1 = nil
		}
		if jb.b2 == b {
			jb.b2 = nil
		}
	}
	last := len(w.bodies) - 1
	i := b.index
	w.bodies[i] = w.bodies[last]
	w.bodies[i].index = i
	w.bodies = w.bodies[:last]
	b.index = -1
	b.world = nil
}

func (w *World) Bodies() []*Body { return w.bodies }

// Check reports ErrUnstable when any body state has diverged.
func (w *World) Check() error {
	for _, b := range w.bodies {
		if !b.IsValid() {
			return ErrUnstable
		}
	}
	return nil
}

func (w *World) NumJoints() int { return len(w.joints) }

func (w *World) CreateJointGroup() *JointGroup {
	return &JointGroup{world: w}
}

func (w *World) addJoint(j Joint, g *JointGroup) {
	jb := j.base()
	jb.world = w
	jb.index = len(w.joints)
	w.joints = append(w.joints, j)
	if g != nil {
		g.add(j)
	}
}

func (w *World) removeJoint(j Joint) {
	jb := j.base()
	if jb.world != w || jb.index < 0 {
		return
	}
	last := len(w.joints) - 1
	i := jb.index
	w.joints[i] = w.joints[last]
	w.joints[i].base().index = i
	w.joints = w.joints[:last]
	jb.index = -1
	jb.world = nil
}

// DestroyJoint removes j from the world. Joints owned by a group are
// removed from it lazily when the group is emptied.
func (w *World) DestroyJoint(j Joint) {
	w.removeJoint(j)
}

func (w *World) CreateHinge(g *JointGroup) *Hinge {
	j := &Hinge{lm: newLimitMotor(), qrel: mgl64.QuatIdent()}
	w.addJoint(j, g)
	return j
}

func (w *World) CreateSlider(g *JointGroup) *Slider {
	j := &Slider{lm: newLimitMotor(), qrel: mgl64.QuatIdent()}
	w.addJoint(j, g)
	return j
}

func (w *World) CreateFixed(g *JointGroup) *Fixed {
	j := &Fixed{qrel: mgl64.QuatIdent()}
	w.addJoint(j, g)
	return j
}

func (w *World) CreateBall(g *JointGroup) *Ball {
	j := &Ball{}
	w.addJoint(j, g)
	return j
}

func (w *World) CreatePiston(g *JointGroup) *Piston {
	j := &Piston{}
	w.addJoint(j, g)
	return j
}

func (w *World) CreatePlane2D(g *JointGroup) *Plane2D {
	j := &Plane2D{}
	w.addJoint(j, g)
	return j
}

func (w *World) CreateContact(g *JointGroup, c Contact) *ContactJoint {
	j := &ContactJoint{contact: c}
	w.addJoint(j, g)
	return j
}
