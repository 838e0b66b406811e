package device

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/integrators"
	"github.com/san-kum/dynbridge/internal/kin"
)

const g = 9.8

type rig struct {
	world  *dynamo.World
	tool   *dynamo.Body
	object *dynamo.Body
	link   *kin.Link
	body   *kin.Body
}

// newRig places a kinematic tool body at z=1 facing down and a 1 kg
// dynamic object just below it.
func newRig() *rig {
	w := dynamo.NewWorld()
	w.SetGravity(mgl64.Vec3{0, 0, -g})

	tool := w.CreateBody()
	tool.SetPosition(mgl64.Vec3{0, 0, 1})
	tool.SetKinematic()

	object := w.CreateBody()
	object.SetPosition(mgl64.Vec3{0, 0, 0.9})
	if err := object.SetMass(dynamo.BoxMass(1, mgl64.Vec3{0.2, 0.2, 0.2})); err != nil {
		panic(err)
	}

	link := kin.NewLink("HAND")
	body := kin.NewBody("tool")
	body.SetRootLink(link)
	return &rig{world: w, tool: tool, object: object, link: link, body: body}
}

// touching is a contact on the tool face with the normal pointing from the
// object (body2) into the tool (body1).
func touching() []dynamo.ContactGeom {
	return []dynamo.ContactGeom{{Pos: mgl64.Vec3{0, 0, 1}, Normal: mgl64.Vec3{0, 0, 1}, Depth: 0.001}}
}

func (r *rig) step(n int) {
	s := integrators.NewQuickStep(50, 1.3)
	for i := 0; i < n; i++ {
		r.world.Step(0.01, s)
	}
}

func TestRegistryOrderAndClaim(t *testing.T) {
	r := newRig()
	vg := kin.NewVacuumGripper("vg", r.link)
	vg.SetOn(true)
	r.body.AddDevice(vg)
	nd := kin.NewNailDriver("nd", r.link)
	nd.SetOn(true)
	r.body.AddDevice(nd)

	vac := NewVacuumGrippers(-0.9, 0.01, nil)
	nails := NewNailDrivers(-0.9, 0.01, 3, nil)
	reg := NewRegistry(vac, nails)
	reg.Attach(r.tool, r.link)

	if reg.Near(r.world, r.tool, nil, touching()) {
		t.Error("pairs with the environment must not be claimed")
	}
	if reg.Near(r.world, r.tool, r.object, touching()) {
		t.Error("first touch must still create contacts")
	}
	if !vac.IsGripping(r.object) {
		t.Fatal("gripper did not grip")
	}
	if _, ok := nails.NailedObject(r.object); !ok {
		t.Error("nail driver did not fire")
	}
	if !reg.Near(r.world, r.tool, r.object, touching()) {
		t.Error("gripped pair must be claimed")
	}
}

func TestRegistryFromSettings(t *testing.T) {
	s := config.DefaultSettings()
	reg := NewRegistryFromSettings(s, nil)
	if reg.Len() != 2 {
		t.Fatalf("expected 2 modules, got %d", reg.Len())
	}
	s.Nail.Enabled = false
	reg = NewRegistryFromSettings(s, nil)
	if _, ok := reg.Module(NailDriverModule); ok {
		t.Error("disabled module registered")
	}
}

func TestVacuumGripAndRelease(t *testing.T) {
	r := newRig()
	dev := kin.NewVacuumGripper("vg", r.link)
	r.body.AddDevice(dev)
	vac := NewVacuumGrippers(-0.9, 0.01, nil)
	if !vac.Attach(r.tool, r.link) {
		t.Fatal("gripper not attached")
	}

	vac.Near(r.world, r.tool, r.object, touching())
	if vac.IsGripping(r.object) {
		t.Fatal("gripper gripped while off")
	}

	dev.SetOn(true)
	far := []dynamo.ContactGeom{{Pos: mgl64.Vec3{0, 0, 0.5}, Normal: mgl64.Vec3{0, 0, 1}}}
	vac.Near(r.world, r.tool, r.object, far)
	if vac.IsGripping(r.object) {
		t.Fatal("gripped a contact away from the face")
	}
	side := []dynamo.ContactGeom{{Pos: mgl64.Vec3{0, 0, 1}, Normal: mgl64.Vec3{1, 0, 0}}}
	vac.Near(r.world, r.tool, r.object, side)
	if vac.IsGripping(r.object) {
		t.Fatal("gripped a contact not facing the suction face")
	}

	vac.Near(r.world, r.object, r.tool, flipped(touching()))
	if !vac.IsGripping(r.object) {
		t.Fatal("gripper did not grip with swapped bodies")
	}

	r.step(20)
	if z := r.object.Position()[2]; z < 0.89 {
		t.Errorf("gripped object fell to z=%v", z)
	}
	f, _, ok := vac.Reaction(r.tool)
	if !ok || f[2] < 0.9*g {
		t.Errorf("expected holding force about %v, got %v", g, f)
	}

	dev.SetOn(false)
	vac.PostStep(r.world, 0.2)
	if vac.IsGripping(r.object) {
		t.Error("gripper still holding after switching off")
	}
	if r.world.NumJoints() != 0 {
		t.Errorf("grip joint not destroyed, %d joints left", r.world.NumJoints())
	}
}

func flipped(cs []dynamo.ContactGeom) []dynamo.ContactGeom {
	for i := range cs {
		cs[i].Normal = cs[i].Normal.Mul(-1)
	}
	return cs
}

func TestVacuumPullLimit(t *testing.T) {
	r := newRig()
	dev := kin.NewVacuumGripper("vg", r.link)
	dev.MaxPullForce = 0.5 * g
	dev.SetOn(true)
	r.body.AddDevice(dev)
	vac := NewVacuumGrippers(-0.9, 0.01, nil)
	vac.Attach(r.tool, r.link)

	vac.Near(r.world, r.tool, r.object, touching())
	r.step(1)
	if !vac.Near(r.world, r.tool, r.object, touching()) {
		t.Error("pair must be claimed on the step the limit is checked")
	}
	if vac.IsGripping(r.object) {
		t.Error("gripper should release when the pull limit is exceeded")
	}
}

func TestNailDriverFiresOncePerApproach(t *testing.T) {
	r := newRig()
	dev := kin.NewNailDriver("nd", r.link)
	dev.MaxFasteningForce = 10
	dev.SetOn(true)
	r.body.AddDevice(dev)
	nails := NewNailDrivers(-0.9, 0.01, 3, nil)
	nails.Attach(r.tool, r.link)

	nails.Near(r.world, r.tool, r.object, touching())
	obj, ok := nails.NailedObject(r.object)
	if !ok || obj.Nails != 1 {
		t.Fatal("first approach did not fire")
	}
	if dev.Ready() {
		t.Error("driver still ready after firing")
	}

	for i := 0; i < 5; i++ {
		nails.Near(r.world, r.tool, r.object, touching())
		nails.PostStep(r.world, 0)
	}
	if obj.Nails != 1 {
		t.Errorf("fired %d nails while staying in contact", obj.Nails)
	}

	for i := 0; i < 3; i++ {
		nails.PostStep(r.world, 0)
	}
	if !dev.Ready() {
		t.Fatal("driver not re-armed after moving away")
	}
	nails.Near(r.world, r.tool, r.object, touching())
	if obj.Nails != 2 || obj.MaxFasteningForce != 20 {
		t.Errorf("expected 2 nails holding 20, got %d holding %v", obj.Nails, obj.MaxFasteningForce)
	}
}

func TestNailedObjectHoldsAndPullsOut(t *testing.T) {
	for _, held := range []bool{false, true} {
		r := newRig()
		dev := kin.NewNailDriver("nd", r.link)
		dev.MaxFasteningForce = g
		dev.SetOn(true)
		r.body.AddDevice(dev)
		nails := NewNailDrivers(-0.9, 0.01, 3, nil)
		nails.Held = func(*dynamo.Body) bool { return held }
		nails.Attach(r.tool, r.link)
		nails.Near(r.world, r.tool, r.object, touching())

		r.step(5)
		nails.PostStep(r.world, 0)
		if _, ok := nails.NailedObject(r.object); !ok {
			t.Fatal("nail pulled out by gravity alone")
		}
		if z := r.object.Position()[2]; z < 0.899 {
			t.Errorf("nailed object moved to z=%v", z)
		}

		r.object.AddForce(mgl64.Vec3{0, 0, 3 * g})
		r.step(1)
		nails.PostStep(r.world, 0)
		_, still := nails.NailedObject(r.object)
		if still != held {
			t.Errorf("held=%v: nailed object present=%v after overload", held, still)
		}
	}
}
