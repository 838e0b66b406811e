package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

// MaxContacts is the per-pair cap the simulator uses.
const MaxContacts = 100

// Collide computes up to max contacts between two non-space geoms. Normals
// point from g2 into g1; moving g1 along the normal by Depth separates the
// pair.
func Collide(g1, g2 Geom, max int) []dynamo.ContactGeom {
	if max <= 0 || g1.Class() == ClassSpace || g2.Class() == ClassSpace {
		return nil
	}
	if !g1.AABB().Overlaps(g2.AABB()) {
		return nil
	}
	switch {
	case g1.Class() == ClassTriMesh || g2.Class() == ClassTriMesh:
		return meshContacts(g1, g2, max)
	case g1.Class() == ClassSphere && g2.Class() == ClassSphere:
		return sphereSphere(g1.(*Sphere), g2.(*Sphere))
	case g1.Class() == ClassSphere && g2.Class() == ClassBox:
		return sphereBox(g1.(*Sphere), g2.(*Box))
	case g1.Class() == ClassBox && g2.Class() == ClassSphere:
		return flip(sphereBox(g2.(*Sphere), g1.(*Box)))
	}
	a, ok1 := g1.(convex)
	b, ok2 := g2.(convex)
	if !ok1 || !ok2 {
		return nil
	}
	return convexContacts(a, b, max)
}

func flip(cs []dynamo.ContactGeom) []dynamo.ContactGeom {
	for i := range cs {
		cs[i].Normal = cs[i].Normal.Mul(-1)
	}
	return cs
}

func sphereSphere(a, b *Sphere) []dynamo.ContactGeom {
	pa, pb := a.Position(), b.Position()
	d := pa.Sub(pb)
	dist := d.Len()
	depth := a.Radius + b.Radius - dist
	if depth < 0 {
		return nil
	}
	n := mgl64.Vec3{1, 0, 0}
	if dist > 1e-12 {
		n = d.Mul(1 / dist)
	}
	return []dynamo.ContactGeom{{Pos: pb.Add(n.Mul(b.Radius - depth/2)), Normal: n, Depth: depth}}
}

func sphereBox(s *Sphere, b *Box) []dynamo.ContactGeom {
	r := b.Rotation()
	c := s.Position()
	local := r.Transpose().Mul3x1(c.Sub(b.Position()))
	h := b.Size.Mul(0.5)
	inside := true
	var q mgl64.Vec3
	for k := 0; k < 3; k++ {
		q[k] = math.Max(-h[k], math.Min(h[k], local[k]))
		if q[k] != local[k] {
			inside = false
		}
	}
	if !inside {
		d := local.Sub(q)
		dist := d.Len()
		depth := s.Radius - dist
		if depth < 0 {
			return nil
		}
		n := r.Mul3x1(d.Mul(1 / dist))
		return []dynamo.ContactGeom{{Pos: b.Position().Add(r.Mul3x1(q)), Normal: n, Depth: depth}}
	}
	axis, best := 0, math.Inf(1)
	for k := 0; k < 3; k++ {
		if face := h[k] - math.Abs(local[k]); face < best {
			axis, best = k, face
		}
	}
	var ln mgl64.Vec3
	ln[axis] = 1
	if local[axis] < 0 {
		ln[axis] = -1
	}
	q = local
	q[axis] = ln[axis] * h[axis]
	return []dynamo.ContactGeom{{
		Pos:    b.Position().Add(r.Mul3x1(q)),
		Normal: r.Mul3x1(ln),
		Depth:  s.Radius + best,
	}}
}

// meshContacts collides every mesh triangle near the other geom and merges
// coincident points.
func meshContacts(g1, g2 Geom, max int) []dynamo.ContactGeom {
	parts := func(g Geom) []convex {
		if m, ok := g.(*TriMesh); ok {
			tris := m.triangles()
			out := make([]convex, len(tris))
			for i, t := range tris {
				out[i] = t
			}
			return out
		}
		if c, ok := g.(convex); ok {
			return []convex{c}
		}
		return nil
	}
	as, bs := parts(g1), parts(g2)
	var out []dynamo.ContactGeom
	for _, a := range as {
		ab := a.AABB()
		for _, b := range bs {
			if !ab.Overlaps(b.AABB()) {
				continue
			}
			for _, c := range convexContacts(a, b, max) {
				out = appendUnique(out, c)
				if len(out) >= max {
					return out
				}
			}
		}
	}
	return out
}
