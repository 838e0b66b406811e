package collide

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

// featureTolerance is relative to the shape size: vertices this close to
// the supporting plane belong to the supporting feature.
const featureTolerance = 1e-2

// supportingFeature returns the vertices of verts lying on the supporting
// plane in direction d, ordered around their centroid when they form a
// polygon.
func supportingFeature(verts []mgl64.Vec3, d mgl64.Vec3, tol float64) []mgl64.Vec3 {
	dn := d.Normalize()
	top := math.Inf(-1)
	for _, v := range verts {
		top = math.Max(top, v.Dot(dn))
	}
	var out []mgl64.Vec3
	for _, v := range verts {
		if top-v.Dot(dn) > tol {
			continue
		}
		dup := false
		for _, o := range out {
			if o.Sub(v).LenSqr() < 1e-18 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	if len(out) >= 3 {
		orderPolygon(out, dn)
	}
	return out
}

func orderPolygon(pts []mgl64.Vec3, n mgl64.Vec3) {
	var c mgl64.Vec3
	for _, p := range pts {
		c = c.Add(p)
	}
	c = c.Mul(1 / float64(len(pts)))
	u, v := dynamo.PlaneSpace(n)
	angle := func(p mgl64.Vec3) float64 {
		r := p.Sub(c)
		return math.Atan2(r.Dot(v), r.Dot(u))
	}
	sort.Slice(pts, func(i, j int) bool { return angle(pts[i]) < angle(pts[j]) })
}

func polygonNormal(pts []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n = n.Add(a.Cross(b))
	}
	if n.LenSqr() < 1e-24 {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// convexContacts runs GJK and EPA on a and b and builds a contact manifold.
// Normals point from b into a.
func convexContacts(a, b convex, max int) []dynamo.ContactGeom {
	var s simplex
	if !gjk(a, b, &s) {
		return nil
	}
	if s.count < 4 && !s.complete(a, b) {
		return nil
	}
	nf, depth, err := epa(a, b, &s)
	if err != nil {
		return nil
	}
	return manifold(a, b, nf.Mul(-1), depth, max)
}

func manifold(a, b convex, n mgl64.Vec3, depth float64, max int) []dynamo.ContactGeom {
	fa := a.feature(n.Mul(-1))
	fb := b.feature(n)

	var out []dynamo.ContactGeom
	switch {
	case len(fa) >= 3 || len(fb) >= 3:
		ref, inc, refN := fa, fb, n.Mul(-1)
		if len(fb) >= 3 && (len(fa) < 3 || alignment(fb, n) > alignment(fa, n)) {
			ref, inc, refN = fb, fa, n
		}
		out = clipFeature(ref, inc, refN, n)
	case len(fa) == 2 && len(fb) == 2:
		pa, pb := segmentClosest(fa[0], fa[1], fb[0], fb[1])
		out = []dynamo.ContactGeom{{Pos: pa.Add(pb).Mul(0.5), Normal: n, Depth: depth}}
	}
	if len(out) == 0 {
		pa := a.support(n.Mul(-1))
		pb := b.support(n)
		out = []dynamo.ContactGeom{{Pos: pa.Add(pb).Mul(0.5), Normal: n, Depth: depth}}
	}
	if len(out) > max {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Depth > out[j].Depth })
		out = out[:max]
	}
	return out
}

func alignment(poly []mgl64.Vec3, n mgl64.Vec3) float64 {
	return math.Abs(polygonNormal(poly).Dot(n))
}

// clipFeature clips the incident feature against the side planes of the
// reference polygon and keeps the points below the reference plane.
func clipFeature(ref, inc []mgl64.Vec3, refN, n mgl64.Vec3) []dynamo.ContactGeom {
	pn := polygonNormal(ref)
	if pn.Dot(refN) < 0 {
		pn = pn.Mul(-1)
	}
	if pn.LenSqr() == 0 {
		pn = refN
	}
	var centroid mgl64.Vec3
	for _, p := range ref {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(ref)))

	poly := append([]mgl64.Vec3(nil), inc...)
	for i := range ref {
		r0, r1 := ref[i], ref[(i+1)%len(ref)]
		side := r1.Sub(r0).Cross(pn)
		if side.Dot(centroid.Sub(r0)) < 0 {
			side = side.Mul(-1)
		}
		poly = clipPlane(poly, r0, side)
		if len(poly) == 0 {
			return nil
		}
	}

	offset := pn.Dot(centroid)
	var out []dynamo.ContactGeom
	for _, p := range poly {
		d := offset - pn.Dot(p)
		if d < -1e-9 {
			continue
		}
		if d < 0 {
			d = 0
		}
		out = appendUnique(out, dynamo.ContactGeom{Pos: p.Add(pn.Mul(d / 2)), Normal: n, Depth: d})
	}
	return out
}

// clipPlane keeps the part of poly on the positive side of the plane
// through o with normal side.
func clipPlane(poly []mgl64.Vec3, o, side mgl64.Vec3) []mgl64.Vec3 {
	if len(poly) == 1 {
		if side.Dot(poly[0].Sub(o)) >= 0 {
			return poly
		}
		return nil
	}
	var out []mgl64.Vec3
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		dp, dq := side.Dot(p.Sub(o)), side.Dot(q.Sub(o))
		if dp >= 0 {
			out = append(out, p)
		}
		if (dp >= 0) != (dq >= 0) {
			t := dp / (dp - dq)
			out = append(out, p.Add(q.Sub(p).Mul(t)))
		}
		if len(poly) == 2 {
			if dq >= 0 {
				out = append(out, q)
			}
			break
		}
	}
	return out
}

// segmentClosest returns the closest points of segments p1p2 and q1q2.
func segmentClosest(p1, p2, q1, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1, d2 := p2.Sub(p1), q2.Sub(q1)
	r := p1.Sub(q1)
	a, e, f := d1.Dot(d1), d2.Dot(d2), d2.Dot(r)
	var s, t float64
	switch {
	case a < 1e-18 && e < 1e-18:
		return p1, q1
	case a < 1e-18:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e < 1e-18 {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			den := a*e - b*b
			if den > 1e-18 {
				s = clamp01((b*f - c*e) / den)
			}
			t = (b*s + f) / e
			if t < 0 {
				t, s = 0, clamp01(-c/a)
			} else if t > 1 {
				t, s = 1, clamp01((b-c)/a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), q1.Add(d2.Mul(t))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// mergeDistance is the distance below which two contact points are the
// same point.
const mergeDistance = 1e-4

func appendUnique(out []dynamo.ContactGeom, c dynamo.ContactGeom) []dynamo.ContactGeom {
	for i := range out {
		if out[i].Pos.Sub(c.Pos).Len() < mergeDistance {
			if c.Depth > out[i].Depth {
				out[i] = c
			}
			return out
		}
	}
	return append(out, c)
}
