package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Surface mode flags.
const (
	ContactMu2 = 1 << iota
	ContactFDir1
	ContactMotion1
	ContactApprox1_1
	ContactApprox1_2

	ContactApprox1 = ContactApprox1_1 | ContactApprox1_2
)

// ContactGeom is one contact point as produced by collision detection. The
// normal points from the second geometry into the first.
type ContactGeom struct {
	Pos    mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// Surface holds the friction parameters of one contact. Mu applies to the
// first friction direction and also to the second unless ContactMu2 is set.
// Motion1 is the target slip speed along the first direction.
type Surface struct {
	Mode    int
	Mu      float64
	Mu2     float64
	Motion1 float64
}

type Contact struct {
	Geom    ContactGeom
	Surface Surface
	FDir1   mgl64.Vec3
}

// ContactJoint resolves one Contact between body1 and body2. Either body
// may be nil for contact with the static environment.
type ContactJoint struct {
	jointBase
	contact Contact
}

func (j *ContactJoint) Contact() Contact { return j.contact }

func (j *ContactJoint) appendRows(c *rowContext) {
	ct := &j.contact
	n := ct.Geom.Normal
	p := ct.Geom.Pos
	pos1, _, _ := j.pose1()
	pos2, _, _ := j.pose2()
	r1 := p.Sub(pos1)
	r2 := p.Sub(pos2)

	fill := func(r *Row, d mgl64.Vec3) {
		if j.b1 != nil {
			r.J1L = d
			r.J1A = r1.Cross(d)
		}
		if j.b2 != nil {
			r.J2L = d.Mul(-1)
			r.J2A = r2.Cross(d).Mul(-1)
		}
	}

	normal := c.row(&j.jointBase)
	fill(&normal, n)
	depth := ct.Geom.Depth - c.world.contactLayer
	if depth < 0 {
		depth = 0
	}
	normal.RHS = math.Min(c.erp*depth/c.h, c.world.maxCorrectingVel)
	normal.Lo, normal.Hi = 0, math.Inf(1)
	ni := c.push(normal)

	s := &ct.Surface
	if s.Mu <= 0 && (s.Mode&ContactMu2 == 0 || s.Mu2 <= 0) {
		return
	}

	var t1 mgl64.Vec3
	if s.Mode&ContactFDir1 != 0 && ct.FDir1.Len() > 0 {
		t1 = ct.FDir1.Normalize()
	} else {
		t1, _ = planeSpace(n)
	}
	t2 := n.Cross(t1)

	mu2 := s.Mu
	if s.Mode&ContactMu2 != 0 {
		mu2 = s.Mu2
	}

	if s.Mu > 0 {
		f := c.row(&j.jointBase)
		fill(&f, t1)
		if s.Mode&ContactMotion1 != 0 {
			f.RHS = s.Motion1
		}
		j.frictionBounds(&f, s.Mu, ni, s.Mode&ContactApprox1_1 != 0)
		c.push(f)
	}
	if mu2 > 0 {
		f := c.row(&j.jointBase)
		fill(&f, t2)
		j.frictionBounds(&f, mu2, ni, s.Mode&ContactApprox1_2 != 0)
		c.push(f)
	}
}

// frictionBounds scales the bound with the normal impulse when approx is
// set and otherwise uses mu directly as a force bound.
func (j *ContactJoint) frictionBounds(r *Row, mu float64, normal int, approx bool) {
	if approx {
		r.FIndex = normal
		r.Mu = mu
		return
	}
	r.Lo, r.Hi = -mu, mu
}
