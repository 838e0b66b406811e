package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collision"
	"github.com/san-kum/dynbridge/internal/config"
	"github.com/san-kum/dynbridge/internal/device"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/models"
)

func trackLink(jt kin.JointType, axis mgl64.Vec3) *kin.Link {
	l := kin.NewLink("TRACK")
	l.JointType = jt
	l.Axis = axis
	l.U = 0.7
	l.Dq = -0.3
	return l
}

func TestTrackedContactSurface(t *testing.T) {
	up := dynamo.ContactGeom{Normal: mgl64.Vec3{0, 0, 1}, Depth: 0.0005}
	y := mgl64.Vec3{0, 1, 0}
	tests := []struct {
		name      string
		geom      dynamo.ContactGeom
		cr        crawler
		tracked   bool
		keep      bool
		isotropic bool
		fdir      mgl64.Vec3
		motion    float64
	}{
		{"plain contact", up, crawler{}, false, true, true, mgl64.Vec3{}, 0},
		{"too deep", dynamo.ContactGeom{Normal: up.Normal, Depth: 0.002}, crawler{link: trackLink(kin.JointTracked, y), sign: 1}, true, false, false, mgl64.Vec3{}, 0},
		{"deep plain contact kept", dynamo.ContactGeom{Normal: up.Normal, Depth: 0.002}, crawler{}, false, true, true, mgl64.Vec3{}, 0},
		{"axis along normal", up, crawler{link: trackLink(kin.JointTracked, mgl64.Vec3{0, 0, 1}), sign: 1}, true, true, true, mgl64.Vec3{}, 0},
		{"track as first body", up, crawler{link: trackLink(kin.JointTracked, y), sign: 1}, true, true, false, mgl64.Vec3{1, 0, 0}, 0.7},
		{"track as second body", up, crawler{link: trackLink(kin.JointTracked, y), sign: -1}, true, true, false, mgl64.Vec3{-1, 0, 0}, 0.7},
		{"pseudo continuous track", up, crawler{link: trackLink(kin.JointPseudoContinuousTrack, y), sign: 1}, true, true, false, mgl64.Vec3{1, 0, 0}, -0.3},
		{"plain mecanum barrel", up, crawler{link: trackLink(kin.JointTracked, y), sign: 1, mecanum: true}, true, true, false, mgl64.Vec3{1, 0, 0}, 0.7},
		{"inclined barrel", up, crawler{link: trackLink(kin.JointTracked, y), sign: 1, barrel: math.Pi / 4, mecanum: true}, true, true, false, mgl64.Vec3{math.Sqrt2 / 2, -math.Sqrt2 / 2, 0}, 0.7},
	}

	w := dynamo.NewWorld()
	r := newContactResolver(w, basisFor(false), 0.8, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := r.contact(tt.geom, tt.cr, tt.tracked)
			if ok != tt.keep {
				t.Fatalf("kept = %v, want %v", ok, tt.keep)
			}
			if !ok {
				return
			}
			if c.Surface.Mu != 0.8 {
				t.Errorf("mu = %f, want 0.8", c.Surface.Mu)
			}
			if tt.isotropic {
				if c.Surface.Mode != dynamo.ContactApprox1 {
					t.Errorf("mode = %b, want approx1 only", c.Surface.Mode)
				}
				return
			}
			want := dynamo.ContactFDir1 | dynamo.ContactMotion1 | dynamo.ContactMu2 | dynamo.ContactApprox1
			if c.Surface.Mode != want {
				t.Errorf("mode = %b, want %b", c.Surface.Mode, want)
			}
			if c.Surface.Mu2 != trackMu2 {
				t.Errorf("mu2 = %f, want %f", c.Surface.Mu2, trackMu2)
			}
			if !c.FDir1.ApproxEqualThreshold(tt.fdir, 1e-12) {
				t.Errorf("fdir1 = %v, want %v", c.FDir1, tt.fdir)
			}
			if c.Surface.Motion1 != tt.motion {
				t.Errorf("motion1 = %f, want %f", c.Surface.Motion1, tt.motion)
			}
		})
	}
}

func TestTrackedContactFlippedAxis(t *testing.T) {
	b := basisFor(true)
	r := newContactResolver(dynamo.NewWorld(), b, 1, nil)
	link := trackLink(kin.JointTracked, mgl64.Vec3{0, 1, 0})
	// model up is solver y
	g := dynamo.ContactGeom{Normal: b.vecToSolver(mgl64.Vec3{0, 0, 1}), Depth: 0}

	c, ok := r.contact(g, crawler{link: link, sign: 1}, true)
	if !ok {
		t.Fatal("contact dropped")
	}
	want := b.vecToSolver(mgl64.Vec3{1, 0, 0})
	if !c.FDir1.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("fdir1 = %v, want %v", c.FDir1, want)
	}
}

func TestCrawlerLookup(t *testing.T) {
	w := dynamo.NewWorld()
	r := newContactResolver(w, basisFor(false), 1, nil)
	b1, b2, other := w.CreateBody(), w.CreateBody(), w.CreateBody()
	l1 := trackLink(kin.JointTracked, mgl64.Vec3{0, 1, 0})
	l2 := trackLink(kin.JointTracked, mgl64.Vec3{0, 1, 0})
	r.crawlers.Set(b1, l1)
	r.crawlers.Set(b2, l2)
	r.barrels[b2] = 0.3

	tests := []struct {
		name   string
		a, b   *dynamo.Body
		found  bool
		link   *kin.Link
		sign   float64
		barrel bool
	}{
		{"first", b1, other, true, l1, 1, false},
		{"second", other, b1, true, l1, -1, false},
		{"both picks second", b1, b2, true, l2, -1, true},
		{"environment", b1, nil, true, l1, 1, false},
		{"none", other, nil, false, nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr, ok := r.crawlerOf(tt.a, tt.b)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if !ok {
				return
			}
			if cr.link != tt.link || cr.sign != tt.sign || cr.mecanum != tt.barrel {
				t.Errorf("got %+v", cr)
			}
		})
	}
}

func TestContactGroupCleared(t *testing.T) {
	w := dynamo.NewWorld()
	r := newContactResolver(w, basisFor(false), 1, nil)
	b := w.CreateBody()

	r.resolve(b, nil, []dynamo.ContactGeom{
		{Pos: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{0, 0, 1}, Depth: 0.01},
		{Pos: mgl64.Vec3{1, 0, 0}, Normal: mgl64.Vec3{0, 0, 1}, Depth: 0.01},
	})
	if n := r.Group().Len(); n != 2 {
		t.Fatalf("expected 2 contact joints, got %d", n)
	}
	r.clear()
	if n := r.Group().Len(); n != 0 {
		t.Errorf("expected an empty group, got %d", n)
	}
}

// groupWatcher records the contact group size each time a colliding pair
// reaches the device hooks.
type groupWatcher struct {
	world    *World
	calls    int
	nonEmpty int
}

func (g *groupWatcher) Name() string                        { return "group_watcher" }
func (g *groupWatcher) Attach(*dynamo.Body, *kin.Link) bool { return false }
func (g *groupWatcher) PostStep(*dynamo.World, float64)     {}
func (g *groupWatcher) Reset()                              {}
func (g *groupWatcher) Empty() bool                         { return false }
func (g *groupWatcher) Near(_ *dynamo.World, _, _ *dynamo.Body, _ []dynamo.ContactGeom) bool {
	g.calls++
	if g.world.Contacts().Group().Len() != 0 {
		g.nonEmpty++
	}
	return false
}

func TestStepStartsCollisionWithEmptyGroup(t *testing.T) {
	p := models.NewPendulum()
	p.Damping = 0
	pendulum := p.Body()
	// resting on the kinematic pendulum base, the only pair with two bodies
	top := models.PivotHeight + 0.05
	block := models.NewBlock("crate", 0.5, mgl64.Vec3{0.2, 0.2, 0.2}, mgl64.Vec3{0, 0, top + 0.099})

	w := NewWorld(config.DefaultSimulator(), DefaultTimeStep, quietLogger())
	watcher := &groupWatcher{world: w}
	w.SetDevices(device.NewRegistry(watcher))
	if !w.Initialize([]*kin.Body{pendulum, block}) {
		t.Fatal("initialize failed")
	}
	baseline := w.Solver().NumJoints()

	const n = 300
	maxLen := 0
	for i := 0; i < n; i++ {
		w.StepAll()
		k := w.Contacts().Group().Len()
		if got := w.Solver().NumJoints(); got != baseline+k {
			t.Fatalf("step %d: %d solver joints, want %d persistent + %d contacts", i, got, baseline, k)
		}
		maxLen = max(maxLen, k)
	}

	if watcher.calls < n-50 {
		t.Fatalf("block lost contact: %d hook calls in %d steps", watcher.calls, n)
	}
	if watcher.nonEmpty != 0 {
		t.Errorf("%d of %d collision phases started with leftover contacts", watcher.nonEmpty, watcher.calls)
	}
	if maxLen == 0 || maxLen > 16 {
		t.Errorf("contacts per step = %d, expected a bounded resting set", maxLen)
	}
	if z := block.RootLink().P[2]; math.Abs(z-(top+0.1)) > 0.01 {
		t.Errorf("block not resting on the base: z = %v", z)
	}
}

func TestPairMapsDetectorOutput(t *testing.T) {
	w := newTestWorld(t, func(c *config.Simulator) { c.Mode2D = true }, offsetLink())
	a := w.Bodies()[0].Link(0)
	floor := &LinkAdapter{link: kin.NewLink("FLOOR")}

	w.contacts.Pair(a, floor, nil)
	w.contacts.Pair(nil, floor, []collision.Collision{{Depth: 0.01}})
	if n := w.contacts.Group().Len(); n != 0 {
		t.Fatalf("expected no contacts, got %d", n)
	}

	w.contacts.Pair(a, floor, []collision.Collision{{
		Point:  mgl64.Vec3{1, 2, 3},
		Normal: mgl64.Vec3{0, 0, -1},
		Depth:  0.01,
	}})
	joints := w.contacts.Group().Joints()
	if len(joints) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(joints))
	}
	c := joints[0].(*dynamo.ContactJoint).Contact()
	if c.Geom.Pos != (mgl64.Vec3{1, 3, -2}) {
		t.Errorf("pos = %v, want the solver basis point", c.Geom.Pos)
	}
	// the detector normal points into the floor; the contact normal
	// pushes the body up, which is solver +y
	if c.Geom.Normal != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("normal = %v, want (0, 1, 0)", c.Geom.Normal)
	}
	b1, b2 := joints[0].Bodies()
	if b1 != a.Body() || b2 != nil {
		t.Error("contact should attach the body to the environment")
	}
}
