package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/scene"
)

type placed struct {
	geom  collide.Geom
	local mgl64.Mat4
}

type geometry struct {
	static bool
	parts  []placed
}

func (g *geometry) aabb() collide.AABB {
	var box collide.AABB
	for i, p := range g.parts {
		if i == 0 {
			box = p.geom.AABB()
			continue
		}
		box = box.Union(p.geom.AABB())
	}
	return box
}

// NarrowPhase is a Detector backed by the collide package. Broad phase is
// an all-pairs bounding box test over geometries.
type NarrowPhase struct {
	geoms        []*geometry
	excluded     map[[2]int]struct{}
	cacheEnabled bool
	cache        map[scene.Node]Decomposition
	ready        bool
}

func NewNarrowPhase() *NarrowPhase {
	return &NarrowPhase{
		excluded: make(map[[2]int]struct{}),
		cache:    make(map[scene.Node]Decomposition),
	}
}

func (d *NarrowPhase) Name() string { return "NarrowPhase" }

func (d *NarrowPhase) ClearGeometries() {
	d.geoms = d.geoms[:0]
	clear(d.excluded)
	d.ready = false
}

func (d *NarrowPhase) NumGeometries() int { return len(d.geoms) }

func (d *NarrowPhase) AddGeometry(shape scene.Node) int {
	id := len(d.geoms)
	d.geoms = append(d.geoms, d.build(shape))
	d.ready = false
	return id
}

func (d *NarrowPhase) build(shape scene.Node) *geometry {
	if shape == nil {
		return nil
	}
	dec, ok := d.cache[shape]
	if !ok {
		dec = Decompose(shape, mgl64.Vec3{})
		if d.cacheEnabled {
			d.cache[shape] = dec
		}
	}
	if dec.Empty() {
		return nil
	}
	g := &geometry{}
	for _, p := range dec.Parts {
		g.parts = append(g.parts, placed{geom: clone(p.Geom), local: p.Local})
	}
	if dec.Mesh != nil {
		if m, err := collide.NewTriMesh(dec.Mesh); err == nil {
			g.parts = append(g.parts, placed{geom: m, local: mgl64.Ident4()})
		}
	}
	for _, p := range g.parts {
		place(p.geom, p.local)
	}
	return g
}

// clone gives every geometry its own primitive so cached decompositions can
// be shared between ids.
func clone(g collide.Geom) collide.Geom {
	switch p := g.(type) {
	case *collide.Box:
		return collide.NewBox(p.Size)
	case *collide.Sphere:
		return collide.NewSphere(p.Radius)
	case *collide.Cylinder:
		return collide.NewCylinder(p.Radius, p.Length)
	}
	return g
}

func place(g collide.Geom, t mgl64.Mat4) {
	if p, ok := g.(collide.Placeable); ok {
		p.SetPosition(scene.Translation(t))
		p.SetRotation(scene.Linear(t))
	}
}

func (d *NarrowPhase) SetGeometryStatic(id int, static bool) {
	if g := d.get(id); g != nil {
		g.static = static
	}
}

func (d *NarrowPhase) EnableGeometryCache(on bool) bool {
	d.cacheEnabled = on
	if !on {
		clear(d.cache)
	}
	return true
}

func (d *NarrowPhase) ClearGeometryCache(shape scene.Node) { delete(d.cache, shape) }

func (d *NarrowPhase) ClearAllGeometryCaches() { clear(d.cache) }

func (d *NarrowPhase) SetNonInterferingPair(id1, id2 int) {
	d.excluded[key(id1, id2)] = struct{}{}
}

func (d *NarrowPhase) MakeReady() bool {
	d.ready = true
	return true
}

func (d *NarrowPhase) UpdatePosition(id int, t mgl64.Mat4) {
	g := d.get(id)
	if g == nil {
		return
	}
	for _, p := range g.parts {
		place(p.geom, t.Mul4(p.local))
	}
}

// DetectCollisions reports every touching pair in ascending id order.
func (d *NarrowPhase) DetectCollisions(cb func(Pair)) {
	if !d.ready {
		d.MakeReady()
	}
	boxes := make([]collide.AABB, len(d.geoms))
	for i, g := range d.geoms {
		if g != nil {
			boxes[i] = g.aabb()
		}
	}
	var pairs []Pair
	for i, g1 := range d.geoms {
		if g1 == nil {
			continue
		}
		for j := i + 1; j < len(d.geoms); j++ {
			g2 := d.geoms[j]
			if g2 == nil || g1.static && g2.static {
				continue
			}
			if _, skip := d.excluded[[2]int{i, j}]; skip {
				continue
			}
			if !boxes[i].Overlaps(boxes[j]) {
				continue
			}
			if cs := collisions(g1, g2); len(cs) > 0 {
				pairs = append(pairs, Pair{GeometryID: [2]int{i, j}, Collisions: cs})
			}
		}
	}
	for _, p := range pairs {
		cb(p)
	}
}

func collisions(g1, g2 *geometry) []Collision {
	var out []Collision
	for _, a := range g1.parts {
		for _, b := range g2.parts {
			left := collide.MaxContacts - len(out)
			if left <= 0 {
				return out
			}
			for _, c := range collide.Collide(a.geom, b.geom, left) {
				out = append(out, Collision{Point: c.Pos, Normal: c.Normal.Mul(-1), Depth: c.Depth})
			}
		}
	}
	return out
}

func (d *NarrowPhase) get(id int) *geometry {
	if id < 0 || id >= len(d.geoms) {
		return nil
	}
	return d.geoms[id]
}

func key(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
