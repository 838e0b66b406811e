package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

type Primitive int

const (
	MeshType Primitive = iota
	BoxType
	SphereType
	CylinderType
	ConeType
	CapsuleType
)

func (p Primitive) String() string {
	switch p {
	case BoxType:
		return "box"
	case SphereType:
		return "sphere"
	case CylinderType:
		return "cylinder"
	case ConeType:
		return "cone"
	case CapsuleType:
		return "capsule"
	default:
		return "mesh"
	}
}

// Mesh is a triangle mesh optionally tagged with the primitive it was
// generated from. Cylinders, cones and capsules are aligned with the Y axis.
type Mesh struct {
	Primitive Primitive
	Size      mgl64.Vec3
	Radius    float64
	Height    float64
	Vertices  []mgl32.Vec3
	Triangles [][3]int32
}

func (m *Mesh) NumTriangles() int { return len(m.Triangles) }

func (m *Mesh) Empty() bool { return len(m.Triangles) == 0 || len(m.Vertices) == 0 }

// MeshGenerator triangulates primitives. Division controls the number of
// segments around curved surfaces.
type MeshGenerator struct {
	Division int
}

func NewMeshGenerator() *MeshGenerator {
	return &MeshGenerator{Division: 20}
}

func (g *MeshGenerator) division() int {
	if g.Division < 4 {
		return 4
	}
	return g.Division
}

func (g *MeshGenerator) Box(size mgl64.Vec3) *Mesh {
	h := size.Mul(0.5)
	x, y, z := float32(h[0]), float32(h[1]), float32(h[2])
	m := &Mesh{
		Primitive: BoxType,
		Size:      size,
		Vertices: []mgl32.Vec3{
			{x, y, z}, {-x, y, z}, {-x, -y, z}, {x, -y, z},
			{x, y, -z}, {-x, y, -z}, {-x, -y, -z}, {x, -y, -z},
		},
		Triangles: [][3]int32{
			{0, 1, 2}, {2, 3, 0},
			{0, 5, 1}, {0, 4, 5},
			{1, 5, 6}, {6, 2, 1},
			{2, 6, 7}, {7, 3, 2},
			{3, 7, 4}, {4, 0, 3},
			{4, 7, 6}, {6, 5, 4},
		},
	}
	return m
}

func (g *MeshGenerator) Sphere(radius float64) *Mesh {
	div := g.division()
	vdiv := div / 2
	m := &Mesh{Primitive: SphereType, Radius: radius}
	r := float32(radius)

	m.Vertices = append(m.Vertices, mgl32.Vec3{0, r, 0})
	for i := 1; i < vdiv; i++ {
		phi := math.Pi * float64(i) / float64(vdiv)
		y := float32(radius * math.Cos(phi))
		rr := radius * math.Sin(phi)
		for j := 0; j < div; j++ {
			th := 2 * math.Pi * float64(j) / float64(div)
			m.Vertices = append(m.Vertices, mgl32.Vec3{float32(rr * math.Sin(th)), y, float32(rr * math.Cos(th))})
		}
	}
	bottom := int32(len(m.Vertices))
	m.Vertices = append(m.Vertices, mgl32.Vec3{0, -r, 0})

	ring := func(i, j int) int32 { return int32(1 + (i-1)*div + j%div) }
	for j := 0; j < div; j++ {
		m.Triangles = append(m.Triangles, [3]int32{0, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < vdiv-1; i++ {
		for j := 0; j < div; j++ {
			a, b := ring(i, j), ring(i, j+1)
			c, d := ring(i+1, j), ring(i+1, j+1)
			m.Triangles = append(m.Triangles, [3]int32{a, c, d}, [3]int32{a, d, b})
		}
	}
	for j := 0; j < div; j++ {
		m.Triangles = append(m.Triangles, [3]int32{bottom, ring(vdiv-1, j+1), ring(vdiv-1, j)})
	}
	return m
}

func (g *MeshGenerator) Cylinder(radius, height float64) *Mesh {
	div := g.division()
	m := &Mesh{Primitive: CylinderType, Radius: radius, Height: height}
	hy := float32(height / 2)

	for j := 0; j < div; j++ {
		th := 2 * math.Pi * float64(j) / float64(div)
		x, z := float32(radius*math.Sin(th)), float32(radius*math.Cos(th))
		m.Vertices = append(m.Vertices, mgl32.Vec3{x, hy, z}, mgl32.Vec3{x, -hy, z})
	}
	top := int32(len(m.Vertices))
	m.Vertices = append(m.Vertices, mgl32.Vec3{0, hy, 0}, mgl32.Vec3{0, -hy, 0})
	bottom := top + 1

	for j := 0; j < div; j++ {
		a, b := int32(2*j), int32(2*((j+1)%div))
		m.Triangles = append(m.Triangles,
			[3]int32{a, a + 1, b + 1}, [3]int32{a, b + 1, b},
			[3]int32{top, a, b}, [3]int32{bottom, b + 1, a + 1})
	}
	return m
}
