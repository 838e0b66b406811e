package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

const (
	gjkMaxIterations = 32
	epaMaxIterations = 64
	epaTolerance     = 1e-6
)

type simplex struct {
	pts   [4]mgl64.Vec3
	count int
}

// minkowski returns the support point of a - b in direction d.
func minkowski(a, b convex, d mgl64.Vec3) mgl64.Vec3 {
	return a.support(d).Sub(b.support(d.Mul(-1)))
}

// gjk reports whether a and b overlap, leaving the final simplex in s.
func gjk(a, b convex, s *simplex) bool {
	d := b.Position().Sub(a.Position())
	if d.LenSqr() < 1e-16 {
		d = mgl64.Vec3{1, 0, 0}
	}
	s.pts[0] = minkowski(a, b, d)
	s.count = 1
	d = s.pts[0].Mul(-1)
	if d.LenSqr() < 1e-20 {
		return true
	}
	for i := 0; i < gjkMaxIterations; i++ {
		p := minkowski(a, b, d)
		if p.Dot(d) <= 0 {
			return false
		}
		s.pts[s.count] = p
		s.count++
		if s.reduce(&d) {
			return true
		}
		if d.LenSqr() < 1e-20 {
			return true
		}
	}
	return false
}

func (s *simplex) reduce(d *mgl64.Vec3) bool {
	switch s.count {
	case 2:
		return s.line(d)
	case 3:
		return s.triangle(d)
	case 4:
		return s.tetrahedron(d)
	}
	return false
}

func (s *simplex) line(d *mgl64.Vec3) bool {
	a, b := s.pts[1], s.pts[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)
	if ab.LenSqr() < 1e-16 {
		s.pts[0], s.count = a, 1
		*d = ao
		return ao.LenSqr() < 1e-20
	}
	if ab.Dot(ao) <= 0 {
		s.pts[0], s.count = a, 1
		*d = ao
		return false
	}
	perp := ab.Cross(ao).Cross(ab)
	if perp.LenSqr() < 1e-20 {
		return true
	}
	*d = perp
	return false
}

func (s *simplex) triangle(d *mgl64.Vec3) bool {
	a, b, c := s.pts[2], s.pts[1], s.pts[0]
	ab, ac := b.Sub(a), c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)
	if abc.LenSqr() < 1e-18 {
		s.pts[0], s.pts[1], s.count = b, a, 2
		return s.line(d)
	}
	if ab.Cross(abc).Dot(ao) > 0 {
		s.pts[0], s.pts[1], s.count = b, a, 2
		*d = ab.Cross(ao).Cross(ab)
		return false
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		s.pts[0], s.pts[1], s.count = c, a, 2
		*d = ac.Cross(ao).Cross(ac)
		return false
	}
	switch dist := abc.Dot(ao); {
	case dist > 0:
		*d = abc
	case dist < 0:
		s.pts[0], s.pts[1], s.pts[2] = b, c, a
		*d = abc.Mul(-1)
	default:
		return true
	}
	return false
}

func (s *simplex) tetrahedron(d *mgl64.Vec3) bool {
	a, b, c, dd := s.pts[3], s.pts[2], s.pts[1], s.pts[0]
	ab, ac, ad := b.Sub(a), c.Sub(a), dd.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}
	if abc.LenSqr() < 1e-18 || acd.LenSqr() < 1e-18 || adb.LenSqr() < 1e-18 {
		s.pts[0], s.pts[1], s.pts[2], s.count = c, b, a, 3
		return s.triangle(d)
	}
	switch {
	case abc.Dot(ao) > 0:
		s.pts[0], s.pts[1], s.pts[2], s.count = c, b, a, 3
		return s.triangle(d)
	case acd.Dot(ao) > 0:
		s.pts[0], s.pts[1], s.pts[2], s.count = dd, c, a, 3
		return s.triangle(d)
	case adb.Dot(ao) > 0:
		s.pts[0], s.pts[1], s.pts[2], s.count = b, dd, a, 3
		return s.triangle(d)
	}
	return true
}

// complete grows a touching simplex into a tetrahedron so that the
// polytope expansion has a volume to start from.
func (s *simplex) complete(a, b convex) bool {
	axes := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for s.count < 4 {
		added := false
		var dirs []mgl64.Vec3
		switch s.count {
		case 1:
			dirs = axes[:]
		case 2:
			e := s.pts[1].Sub(s.pts[0])
			u, v := orthoBasis(e)
			dirs = []mgl64.Vec3{u, u.Mul(-1), v, v.Mul(-1)}
		case 3:
			n := s.pts[1].Sub(s.pts[0]).Cross(s.pts[2].Sub(s.pts[0]))
			dirs = []mgl64.Vec3{n, n.Mul(-1)}
		}
		for _, dir := range dirs {
			p := minkowski(a, b, dir)
			if s.independent(p) {
				s.pts[s.count] = p
				s.count++
				added = true
				break
			}
		}
		if !added {
			return false
		}
	}
	return true
}

func (s *simplex) independent(p mgl64.Vec3) bool {
	const eps = 1e-10
	switch s.count {
	case 1:
		return p.Sub(s.pts[0]).LenSqr() > eps
	case 2:
		return s.pts[1].Sub(s.pts[0]).Cross(p.Sub(s.pts[0])).LenSqr() > eps
	case 3:
		n := s.pts[1].Sub(s.pts[0]).Cross(s.pts[2].Sub(s.pts[0]))
		return math.Abs(n.Dot(p.Sub(s.pts[0]))) > eps
	}
	return false
}

func orthoBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if n.LenSqr() < 1e-20 {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	}
	return dynamo.PlaneSpace(n)
}

type epaFace struct {
	a, b, c int
	normal  mgl64.Vec3
	dist    float64
}

// epa expands the simplex over the Minkowski difference a - b and returns
// the outward normal and distance of the face closest to the origin.
func epa(a, b convex, s *simplex) (mgl64.Vec3, float64, error) {
	verts := []mgl64.Vec3{s.pts[0], s.pts[1], s.pts[2], s.pts[3]}
	var faces []epaFace
	add := func(i, j, k int) {
		n := verts[j].Sub(verts[i]).Cross(verts[k].Sub(verts[i]))
		l := n.Len()
		if l < 1e-14 {
			return
		}
		n = n.Mul(1 / l)
		dist := n.Dot(verts[i])
		if dist < 0 {
			n = n.Mul(-1)
			dist = -dist
			j, k = k, j
		}
		faces = append(faces, epaFace{a: i, b: j, c: k, normal: n, dist: dist})
	}
	add(0, 1, 2)
	add(0, 3, 1)
	add(0, 2, 3)
	add(1, 3, 2)
	if len(faces) == 0 {
		return mgl64.Vec3{}, 0, ErrNoConvergence
	}

	for it := 0; it < epaMaxIterations; it++ {
		best := 0
		for i := range faces {
			if faces[i].dist < faces[best].dist {
				best = i
			}
		}
		f := faces[best]
		p := minkowski(a, b, f.normal)
		if p.Dot(f.normal)-f.dist < epaTolerance {
			return f.normal, f.dist, nil
		}

		verts = append(verts, p)
		pi := len(verts) - 1
		type edge struct{ a, b int }
		var horizon []edge
		keep := faces[:0]
		var removed []epaFace
		for _, face := range faces {
			if face.normal.Dot(p.Sub(verts[face.a])) > 0 {
				removed = append(removed, face)
			} else {
				keep = append(keep, face)
			}
		}
		faces = keep
		for _, face := range removed {
			for _, e := range [3]edge{{face.a, face.b}, {face.b, face.c}, {face.c, face.a}} {
				shared := false
				for k, h := range horizon {
					if h.a == e.b && h.b == e.a {
						horizon = append(horizon[:k], horizon[k+1:]...)
						shared = true
						break
					}
				}
				if !shared {
					horizon = append(horizon, e)
				}
			}
		}
		for _, e := range horizon {
			add(e.a, e.b, pi)
		}
		if len(faces) == 0 {
			return f.normal, f.dist, nil
		}
	}

	best := faces[0]
	for _, f := range faces[1:] {
		if f.dist < best.dist {
			best = f
		}
	}
	return best.normal, best.dist, nil
}
