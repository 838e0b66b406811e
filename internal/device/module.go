// Package device implements contact-driven devices such as vacuum grippers
// and nail drivers. Each device type is a Module plugged into a per-world
// Registry; the simulation world consults the registry from its near-phase
// callback and once after every step.
package device

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/sirupsen/logrus"
)

// Module is one device type.
type Module interface {
	Name() string
	// Attach offers the solver body created for link. The module records
	// the link's devices of its type and reports whether it took any.
	Attach(b *dynamo.Body, link *kin.Link) bool
	// Near sees every colliding pair of bodies before contact constraints
	// are created. Returning true suppresses those constraints.
	Near(w *dynamo.World, b1, b2 *dynamo.Body, contacts []dynamo.ContactGeom) bool
	// PostStep runs once after every integration step.
	PostStep(w *dynamo.World, t float64)
	// Reset drops every record. Joints are left to the world that owns them.
	Reset()
	Empty() bool
}

// Registry holds the modules of one world in registration order, which is
// also the order their near hooks run in.
type Registry struct {
	modules *orderedmap.OrderedMap[string, Module]
}

func NewRegistry(modules ...Module) *Registry {
	r := &Registry{modules: orderedmap.NewOrderedMap[string, Module]()}
	for _, m := range modules {
		r.Register(m)
	}
	return r
}

// Register adds m, replacing a module with the same name in place.
func (r *Registry) Register(m Module) {
	r.modules.Set(m.Name(), m)
}

func (r *Registry) Module(name string) (Module, bool) {
	return r.modules.Get(name)
}

func (r *Registry) Len() int { return r.modules.Len() }

func (r *Registry) Attach(b *dynamo.Body, link *kin.Link) {
	for el := r.modules.Front(); el != nil; el = el.Next() {
		el.Value.Attach(b, link)
	}
}

// Near runs the near hooks until one claims the pair.
func (r *Registry) Near(w *dynamo.World, b1, b2 *dynamo.Body, contacts []dynamo.ContactGeom) bool {
	if b1 == nil || b2 == nil {
		return false
	}
	for el := r.modules.Front(); el != nil; el = el.Next() {
		if el.Value.Empty() {
			continue
		}
		if el.Value.Near(w, b1, b2, contacts) {
			return true
		}
	}
	return false
}

func (r *Registry) PostStep(w *dynamo.World, t float64) {
	for el := r.modules.Front(); el != nil; el = el.Next() {
		if !el.Value.Empty() {
			el.Value.PostStep(w, t)
		}
	}
}

func (r *Registry) Reset() {
	for el := r.modules.Front(); el != nil; el = el.Next() {
		el.Value.Reset()
	}
}

// mount is the solver-frame view of a device on a body. Offset and normal
// are in the link frame; the body origin is the link's center of mass.
type mount struct {
	body   *dynamo.Body
	offset mgl64.Vec3
	normal mgl64.Vec3
}

func newMount(b *dynamo.Body, link *kin.Link, pLocal, normal mgl64.Vec3) mount {
	return mount{body: b, offset: pLocal.Sub(link.C), normal: normal.Normalize()}
}

func (m *mount) position() mgl64.Vec3 {
	return m.body.Position().Add(m.body.Rotation().Mul3x1(m.offset))
}

func (m *mount) worldNormal() mgl64.Vec3 {
	return m.body.Rotation().Mul3x1(m.normal)
}

// countFacing counts contacts pressing against the device face: the normal
// seen from the device opposes the face normal by more than dot and the
// point lies within distance of the face plane. Contact normals point from
// body2 into body1, so they are reversed when the device is body2.
func (m *mount) countFacing(contacts []dynamo.ContactGeom, deviceIsBody1 bool, dot, distance float64) int {
	n := m.worldNormal()
	p := m.position()
	count := 0
	for _, c := range contacts {
		cn := c.Normal
		if !deviceIsBody1 {
			cn = cn.Mul(-1)
		}
		if cn.Dot(n) >= dot {
			continue
		}
		if d := c.Pos.Sub(p).Dot(n); d > distance || d < -distance {
			continue
		}
		count++
	}
	return count
}

func logger(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		return logrus.NewEntry(l)
	}
	return log
}
