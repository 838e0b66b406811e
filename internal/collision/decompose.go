package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/scene"
)

// Part is a native primitive found in a shape graph. Local is its unscaled
// pose relative to the graph root; cylinders already include the quarter
// turn about X that maps the Y-aligned model cylinder onto the Z-aligned
// geom.
type Part struct {
	Geom  collide.Geom
	Local mgl64.Mat4
}

// Decomposition is the collision view of a shape graph: primitives where
// the accumulated transform allows them, plus every other triangle merged
// into one mesh.
type Decomposition struct {
	Parts []Part
	Mesh  *collide.TriMeshData
}

func (d Decomposition) Empty() bool {
	return len(d.Parts) == 0 && d.Mesh == nil
}

// Decompose walks root and returns its collision geometry. Mesh vertices
// are transformed into the root frame and then shifted by -origin.
func Decompose(root scene.Node, origin mgl64.Vec3) Decomposition {
	var d Decomposition
	var verts []mgl32.Vec3
	var tris [][3]int32

	ex := scene.NewExtractor()
	ex.Extract(root, func() {
		mesh := ex.CurrentMesh()
		if mesh == nil || (mesh.Empty() && mesh.Primitive == scene.MeshType) {
			return
		}
		if part, ok := primitive(ex, mesh); ok {
			d.Parts = append(d.Parts, part)
			return
		}
		if mesh.Empty() {
			return
		}
		t := ex.CurrentTransform()
		base := int32(len(verts))
		for _, v := range mesh.Vertices {
			p := scene.TransformPoint(t, mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}).Sub(origin)
			verts = append(verts, mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])})
		}
		for _, tri := range mesh.Triangles {
			tris = append(tris, [3]int32{base + tri[0], base + tri[1], base + tri[2]})
		}
	})
	if len(tris) > 0 {
		d.Mesh = &collide.TriMeshData{Vertices: verts, Triangles: tris}
	}
	return d
}

func primitive(ex *scene.Extractor, mesh *scene.Mesh) (Part, bool) {
	switch mesh.Primitive {
	case scene.BoxType, scene.SphereType, scene.CylinderType:
	default:
		return Part{}, false
	}
	scale := mgl64.Vec3{1, 1, 1}
	var shift mgl64.Vec3
	unscaled := ex.CurrentTransformWithoutScaling()
	if ex.IsCurrentScaled() {
		s := unscaled.Inv().Mul4(ex.CurrentTransform())
		lin := scene.Linear(s)
		if !isDiagonal(lin) {
			return Part{}, false
		}
		shift = scene.Translation(s)
		scale = mgl64.Vec3{lin.At(0, 0), lin.At(1, 1), lin.At(2, 2)}
	}

	local := unscaled.Mul4(mgl64.Translate3D(shift[0], shift[1], shift[2]))
	var g collide.Geom
	switch mesh.Primitive {
	case scene.BoxType:
		g = collide.NewBox(mgl64.Vec3{mesh.Size[0] * scale[0], mesh.Size[1] * scale[1], mesh.Size[2] * scale[2]})
	case scene.SphereType:
		if !near(scale[0], scale[1]) || !near(scale[0], scale[2]) {
			return Part{}, false
		}
		g = collide.NewSphere(mesh.Radius * scale[0])
	case scene.CylinderType:
		if !near(scale[0], scale[2]) {
			return Part{}, false
		}
		g = collide.NewCylinder(mesh.Radius*scale[0], mesh.Height*scale[1])
		local = local.Mul4(mgl64.HomogRotate3DX(math.Pi / 2))
	}
	return Part{Geom: g, Local: local}, true
}

const diagonalTolerance = 1e-12

func isDiagonal(m mgl64.Mat3) bool {
	ref := math.Max(math.Abs(m.At(0, 0)), math.Max(math.Abs(m.At(1, 1)), math.Abs(m.At(2, 2))))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(m.At(i, j)) > diagonalTolerance*math.Max(ref, 1) {
				return false
			}
		}
	}
	return true
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= diagonalTolerance*math.Max(math.Abs(a), math.Abs(b))
}
