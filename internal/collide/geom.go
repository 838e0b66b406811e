package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

type Class int

const (
	ClassSphere Class = iota
	ClassBox
	ClassCylinder
	ClassTriMesh
	ClassSpace
)

func (c Class) String() string {
	switch c {
	case ClassSphere:
		return "sphere"
	case ClassBox:
		return "box"
	case ClassCylinder:
		return "cylinder"
	case ClassTriMesh:
		return "trimesh"
	case ClassSpace:
		return "space"
	}
	return "unknown"
}

type AABB struct {
	Min, Max mgl64.Vec3
}

func (a AABB) Overlaps(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || b.Max[i] < a.Min[i] {
			return false
		}
	}
	return true
}

func (a AABB) Union(b AABB) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], b.Min[i])
		a.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return a
}

func emptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: mgl64.Vec3{inf, inf, inf}, Max: mgl64.Vec3{-inf, -inf, -inf}}
}

// Geom is a collision shape. A geom attached to a body follows it through
// a fixed offset; a free geom keeps its own world pose.
type Geom interface {
	Class() Class
	Body() *dynamo.Body
	Position() mgl64.Vec3
	Rotation() mgl64.Mat3
	AABB() AABB
	Data() any
	SetData(v any)
	Space() Space
	setSpace(s Space)
}

// Placeable is implemented by every non-space geom.
type Placeable interface {
	Geom
	SetBody(b *dynamo.Body)
	SetOffsetPosition(p mgl64.Vec3)
	SetOffsetRotation(r mgl64.Mat3)
	SetPosition(p mgl64.Vec3)
	SetRotation(r mgl64.Mat3)
}

type geomBase struct {
	body   *dynamo.Body
	offPos mgl64.Vec3
	offRot mgl64.Mat3
	pos    mgl64.Vec3
	rot    mgl64.Mat3
	data   any
	space  Space
}

func newGeomBase() geomBase {
	return geomBase{offRot: mgl64.Ident3(), rot: mgl64.Ident3()}
}

func (g *geomBase) Body() *dynamo.Body { return g.body }

func (g *geomBase) SetBody(b *dynamo.Body) {
	g.body = b
	g.offPos = mgl64.Vec3{}
	g.offRot = mgl64.Ident3()
}

func (g *geomBase) SetOffsetPosition(p mgl64.Vec3) { g.offPos = p }
func (g *geomBase) SetOffsetRotation(r mgl64.Mat3) { g.offRot = r }

// SetPosition and SetRotation place a free geom. They have no effect on a
// geom attached to a body.
func (g *geomBase) SetPosition(p mgl64.Vec3) { g.pos = p }
func (g *geomBase) SetRotation(r mgl64.Mat3) { g.rot = r }

func (g *geomBase) Position() mgl64.Vec3 {
	if g.body == nil {
		return g.pos
	}
	return g.body.Position().Add(g.body.Rotation().Mul3x1(g.offPos))
}

func (g *geomBase) Rotation() mgl64.Mat3 {
	if g.body == nil {
		return g.rot
	}
	return g.body.Rotation().Mul3(g.offRot)
}

func (g *geomBase) Data() any        { return g.data }
func (g *geomBase) SetData(v any)    { g.data = v }
func (g *geomBase) Space() Space     { return g.space }
func (g *geomBase) setSpace(s Space) { g.space = s }

// convex is a geom with a support mapping.
type convex interface {
	Geom
	support(d mgl64.Vec3) mgl64.Vec3
	feature(d mgl64.Vec3) []mgl64.Vec3
}

type Sphere struct {
	geomBase
	Radius float64
}

func NewSphere(radius float64) *Sphere {
	return &Sphere{geomBase: newGeomBase(), Radius: radius}
}

func (s *Sphere) Class() Class { return ClassSphere }

func (s *Sphere) AABB() AABB {
	c := s.Position()
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: c.Sub(r), Max: c.Add(r)}
}

func (s *Sphere) support(d mgl64.Vec3) mgl64.Vec3 {
	l := d.Len()
	if l < 1e-12 {
		return s.Position()
	}
	return s.Position().Add(d.Mul(s.Radius / l))
}

func (s *Sphere) feature(d mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.support(d)}
}

// Box is centered on its origin with full side lengths Size.
type Box struct {
	geomBase
	Size mgl64.Vec3
}

func NewBox(size mgl64.Vec3) *Box {
	return &Box{geomBase: newGeomBase(), Size: size}
}

func (b *Box) Class() Class { return ClassBox }

func (b *Box) AABB() AABB {
	c := b.Position()
	r := b.Rotation()
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			ext[i] += math.Abs(r.At(i, k)) * b.Size[k] / 2
		}
	}
	return AABB{Min: c.Sub(ext), Max: c.Add(ext)}
}

func (b *Box) support(d mgl64.Vec3) mgl64.Vec3 {
	r := b.Rotation()
	local := r.Transpose().Mul3x1(d)
	var p mgl64.Vec3
	for k := 0; k < 3; k++ {
		h := b.Size[k] / 2
		if local[k] < 0 {
			p[k] = -h
		} else {
			p[k] = h
		}
	}
	return b.Position().Add(r.Mul3x1(p))
}

func (b *Box) vertices() []mgl64.Vec3 {
	c := b.Position()
	r := b.Rotation()
	h := b.Size.Mul(0.5)
	out := make([]mgl64.Vec3, 0, 8)
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				out = append(out, c.Add(r.Mul3x1(mgl64.Vec3{sx * h[0], sy * h[1], sz * h[2]})))
			}
		}
	}
	return out
}

func (b *Box) feature(d mgl64.Vec3) []mgl64.Vec3 {
	return supportingFeature(b.vertices(), d, featureTolerance*maxComponent(b.Size))
}

// Cylinder is aligned with its local z axis.
type Cylinder struct {
	geomBase
	Radius float64
	Length float64
}

func NewCylinder(radius, length float64) *Cylinder {
	return &Cylinder{geomBase: newGeomBase(), Radius: radius, Length: length}
}

func (c *Cylinder) Class() Class { return ClassCylinder }

func (c *Cylinder) AABB() AABB {
	p := c.Position()
	r := c.Rotation()
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		az := math.Abs(r.At(i, 2))
		ext[i] = az*c.Length/2 + c.Radius*math.Sqrt(math.Max(0, 1-az*az))
	}
	return AABB{Min: p.Sub(ext), Max: p.Add(ext)}
}

func (c *Cylinder) support(d mgl64.Vec3) mgl64.Vec3 {
	r := c.Rotation()
	local := r.Transpose().Mul3x1(d)
	var p mgl64.Vec3
	radial := math.Hypot(local[0], local[1])
	if radial > 1e-12 {
		p[0] = local[0] * c.Radius / radial
		p[1] = local[1] * c.Radius / radial
	}
	if local[2] < 0 {
		p[2] = -c.Length / 2
	} else {
		p[2] = c.Length / 2
	}
	return c.Position().Add(r.Mul3x1(p))
}

const cylinderSegments = 16

func (c *Cylinder) vertices() []mgl64.Vec3 {
	p := c.Position()
	r := c.Rotation()
	out := make([]mgl64.Vec3, 0, 2*cylinderSegments)
	for _, z := range [2]float64{-c.Length / 2, c.Length / 2} {
		for i := 0; i < cylinderSegments; i++ {
			a := 2 * math.Pi * float64(i) / cylinderSegments
			out = append(out, p.Add(r.Mul3x1(mgl64.Vec3{c.Radius * math.Cos(a), c.Radius * math.Sin(a), z})))
		}
	}
	return out
}

func (c *Cylinder) feature(d mgl64.Vec3) []mgl64.Vec3 {
	pts := supportingFeature(c.vertices(), d, featureTolerance*math.Max(c.Radius, c.Length))
	if len(pts) == 1 {
		return []mgl64.Vec3{c.support(d)}
	}
	return pts
}

// TriMeshData is a shared vertex/index buffer.
type TriMeshData struct {
	Vertices  []mgl32.Vec3
	Triangles [][3]int32
}

type TriMesh struct {
	geomBase
	Mesh *TriMeshData
}

func NewTriMesh(data *TriMeshData) (*TriMesh, error) {
	if data == nil || len(data.Triangles) == 0 {
		return nil, ErrDegenerateMesh
	}
	return &TriMesh{geomBase: newGeomBase(), Mesh: data}, nil
}

func (m *TriMesh) Class() Class { return ClassTriMesh }

func (m *TriMesh) worldVertices() []mgl64.Vec3 {
	p := m.Position()
	r := m.Rotation()
	out := make([]mgl64.Vec3, len(m.Mesh.Vertices))
	for i, v := range m.Mesh.Vertices {
		out[i] = p.Add(r.Mul3x1(mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}))
	}
	return out
}

func (m *TriMesh) AABB() AABB {
	box := emptyAABB()
	for _, v := range m.worldVertices() {
		box = box.Union(AABB{Min: v, Max: v})
	}
	return box
}

// triangles returns the mesh triangles as free convex geoms in world space.
func (m *TriMesh) triangles() []*triangle {
	verts := m.worldVertices()
	out := make([]*triangle, 0, len(m.Mesh.Triangles))
	for _, t := range m.Mesh.Triangles {
		if int(t[0]) >= len(verts) || int(t[1]) >= len(verts) || int(t[2]) >= len(verts) {
			continue
		}
		out = append(out, &triangle{owner: m, v: [3]mgl64.Vec3{verts[t[0]], verts[t[1]], verts[t[2]]}})
	}
	return out
}

type triangle struct {
	owner *TriMesh
	v     [3]mgl64.Vec3
}

func (t *triangle) Class() Class         { return ClassTriMesh }
func (t *triangle) Body() *dynamo.Body   { return t.owner.Body() }
func (t *triangle) Position() mgl64.Vec3 { return t.v[0].Add(t.v[1]).Add(t.v[2]).Mul(1.0 / 3) }
func (t *triangle) Rotation() mgl64.Mat3 { return mgl64.Ident3() }
func (t *triangle) Data() any            { return t.owner.Data() }
func (t *triangle) SetData(any)          {}
func (t *triangle) Space() Space         { return nil }
func (t *triangle) setSpace(Space)       {}

func (t *triangle) AABB() AABB {
	box := emptyAABB()
	for _, v := range t.v {
		box = box.Union(AABB{Min: v, Max: v})
	}
	return box
}

func (t *triangle) support(d mgl64.Vec3) mgl64.Vec3 {
	best := t.v[0]
	bd := best.Dot(d)
	for _, v := range t.v[1:] {
		if x := v.Dot(d); x > bd {
			best, bd = v, x
		}
	}
	return best
}

func (t *triangle) feature(d mgl64.Vec3) []mgl64.Vec3 {
	size := math.Max(t.v[1].Sub(t.v[0]).Len(), t.v[2].Sub(t.v[0]).Len())
	return supportingFeature(t.v[:], d, featureTolerance*size)
}

func maxComponent(v mgl64.Vec3) float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}
