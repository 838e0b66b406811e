package sim

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/collision"
	"github.com/san-kum/dynbridge/internal/device"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
)

const (
	// trackMaxDepth is the deepest contact a tracked link keeps.
	trackMaxDepth = 0.001
	trackMu2      = 0.5
	minRollingDir = 1e-5
)

// crawler is the tracked link found in a colliding pair.
type crawler struct {
	link *kin.Link
	// sign is -1 when the tracked link is the second body, since the
	// contact normal then points away from it.
	sign    float64
	barrel  float64
	mecanum bool
}

// ContactResolver converts colliding geometry into contact joints. Tracked
// links get anisotropic friction whose first direction rolls along the
// track and whose slip target is the commanded track rate.
type ContactResolver struct {
	world    *dynamo.World
	group    *dynamo.JointGroup
	basis    basis
	friction float64
	crawlers *orderedmap.OrderedMap[*dynamo.Body, *kin.Link]
	barrels  map[*dynamo.Body]float64
	devices  *device.Registry
}

func newContactResolver(w *dynamo.World, b basis, friction float64, devices *device.Registry) *ContactResolver {
	return &ContactResolver{
		world:    w,
		group:    w.CreateJointGroup(),
		basis:    b,
		friction: friction,
		crawlers: orderedmap.NewOrderedMap[*dynamo.Body, *kin.Link](),
		barrels:  make(map[*dynamo.Body]float64),
		devices:  devices,
	}
}

// Group holds the contact joints of the current step.
func (r *ContactResolver) Group() *dynamo.JointGroup { return r.group }

func (r *ContactResolver) clear() { r.group.Empty() }

// crawlerOf looks up the tracked link of a pair. The second body wins when
// both are tracked.
func (r *ContactResolver) crawlerOf(b1, b2 *dynamo.Body) (crawler, bool) {
	var cr crawler
	found := false
	if r.crawlers.Len() == 0 {
		return cr, false
	}
	for i, b := range [2]*dynamo.Body{b1, b2} {
		if b == nil {
			continue
		}
		link, ok := r.crawlers.Get(b)
		if !ok {
			continue
		}
		cr = crawler{link: link, sign: 1}
		if i == 1 {
			cr.sign = -1
		}
		cr.barrel, cr.mecanum = r.barrels[b]
		found = true
	}
	return cr, found
}

// Near is the near-phase callback for the built-in collision spaces. Space
// arguments are expanded until both sides are leaf geoms.
func (r *ContactResolver) Near(g1, g2 collide.Geom) {
	_, s1 := g1.(collide.Space)
	_, s2 := g2.(collide.Space)
	if s1 || s2 {
		collide.Collide2(g1, g2, r.Near)
		return
	}
	contacts := collide.Collide(g1, g2, collide.MaxContacts)
	if len(contacts) == 0 {
		return
	}
	b1, b2 := g1.Body(), g2.Body()
	if r.devices != nil && r.devices.Near(r.world, b1, b2, contacts) {
		return
	}
	r.resolve(b1, b2, contacts)
}

// Pair handles one pair reported by an external collision detector. The
// detector works in model coordinates with normals from the first geometry
// toward the second, so points and normals are mapped into the solver
// basis and the normal reversed.
func (r *ContactResolver) Pair(l1, l2 *LinkAdapter, collisions []collision.Collision) {
	if l1 == nil || l2 == nil || len(collisions) == 0 {
		return
	}
	contacts := make([]dynamo.ContactGeom, len(collisions))
	for i, c := range collisions {
		contacts[i] = dynamo.ContactGeom{
			Pos:    r.basis.vecToSolver(c.Point),
			Normal: r.basis.vecToSolver(c.Normal).Mul(-1),
			Depth:  c.Depth,
		}
	}
	b1, b2 := l1.body, l2.body
	if b1 == nil && b2 == nil {
		return
	}
	if r.devices != nil && r.devices.Near(r.world, b1, b2, contacts) {
		return
	}
	r.resolve(b1, b2, contacts)
}

func (r *ContactResolver) resolve(b1, b2 *dynamo.Body, contacts []dynamo.ContactGeom) {
	cr, tracked := r.crawlerOf(b1, b2)
	for _, g := range contacts {
		c, ok := r.contact(g, cr, tracked)
		if !ok {
			continue
		}
		j := r.world.CreateContact(r.group, c)
		j.Attach(b1, b2)
	}
}

// contact fills the surface parameters of one contact point. ok is false
// for a tracked contact that is too deep.
func (r *ContactResolver) contact(g dynamo.ContactGeom, cr crawler, tracked bool) (dynamo.Contact, bool) {
	c := dynamo.Contact{Geom: g}
	if !tracked {
		c.Surface = dynamo.Surface{Mode: dynamo.ContactApprox1, Mu: r.friction}
		return c, true
	}
	if g.Depth > trackMaxDepth {
		return c, false
	}
	link := cr.link
	axis := r.basis.vecToSolver(link.R.Mul3x1(link.A()))
	n := g.Normal
	dir := axis.Cross(n)
	if cr.mecanum {
		dir = mgl64.HomogRotate3D(cr.barrel, n).Mat3().Transpose().Mul3x1(dir)
	}
	if dir.Len() < minRollingDir {
		c.Surface = dynamo.Surface{Mode: dynamo.ContactApprox1, Mu: r.friction}
		return c, true
	}
	c.FDir1 = dir.Mul(cr.sign).Normalize()
	motion := link.U
	if link.JointType == kin.JointPseudoContinuousTrack {
		motion = link.Dq
	}
	c.Surface = dynamo.Surface{
		Mode:    dynamo.ContactFDir1 | dynamo.ContactMotion1 | dynamo.ContactMu2 | dynamo.ContactApprox1,
		Mu:      r.friction,
		Mu2:     trackMu2,
		Motion1: motion,
	}
	return c, true
}
