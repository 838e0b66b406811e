package collision

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/collide"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/scene"
)

func TestDecomposePrimitives(t *testing.T) {
	gen := scene.NewMeshGenerator()
	tests := []struct {
		name  string
		node  scene.Node
		parts int
		mesh  bool
	}{
		{"box", scene.NewShape(gen.Box(mgl64.Vec3{1, 2, 3})), 1, false},
		{"scaled box", scene.NewScaleTransform(mgl64.Vec3{2, 1, 1}, scene.NewShape(gen.Box(mgl64.Vec3{1, 1, 1}))), 1, false},
		{"uniform sphere", scene.NewScaleTransform(mgl64.Vec3{2, 2, 2}, scene.NewShape(gen.Sphere(0.5))), 1, false},
		{"squashed sphere", scene.NewScaleTransform(mgl64.Vec3{1, 2, 1}, scene.NewShape(gen.Sphere(0.5))), 0, true},
		{"cylinder", scene.NewShape(gen.Cylinder(0.2, 1)), 1, false},
		{"oval cylinder", scene.NewScaleTransform(mgl64.Vec3{1, 1, 2}, scene.NewShape(gen.Cylinder(0.2, 1))), 0, true},
		{"empty", scene.NewGroup(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decompose(tt.node, mgl64.Vec3{})
			if len(d.Parts) != tt.parts {
				t.Errorf("expected %d parts, got %d", tt.parts, len(d.Parts))
			}
			if (d.Mesh != nil) != tt.mesh {
				t.Errorf("mesh present = %v, want %v", d.Mesh != nil, tt.mesh)
			}
		})
	}
}

func TestDecomposeScaledSizes(t *testing.T) {
	gen := scene.NewMeshGenerator()
	d := Decompose(scene.NewScaleTransform(mgl64.Vec3{2, 3, 4}, scene.NewShape(gen.Box(mgl64.Vec3{1, 1, 1}))), mgl64.Vec3{})
	box := d.Parts[0].Geom.(*collide.Box)
	if box.Size != (mgl64.Vec3{2, 3, 4}) {
		t.Errorf("unexpected box size %v", box.Size)
	}

	d = Decompose(scene.NewScaleTransform(mgl64.Vec3{2, 3, 2}, scene.NewShape(gen.Cylinder(0.5, 1))), mgl64.Vec3{})
	cyl := d.Parts[0].Geom.(*collide.Cylinder)
	if cyl.Radius != 1 || cyl.Length != 3 {
		t.Errorf("unexpected cylinder %v x %v", cyl.Radius, cyl.Length)
	}
	// the geom's z axis must follow the model's y axis
	axis := scene.Linear(d.Parts[0].Local).Mul3x1(mgl64.Vec3{0, 0, 1})
	if math.Abs(math.Abs(axis[1])-1) > 1e-9 {
		t.Errorf("cylinder axis not aligned with Y: %v", axis)
	}
}

func TestDecomposeMeshOrigin(t *testing.T) {
	gen := scene.NewMeshGenerator()
	shape := scene.NewTranslation(mgl64.Vec3{1, 0, 0},
		scene.NewScaleTransform(mgl64.Vec3{1, 2, 1}, scene.NewShape(gen.Sphere(0.5))))
	d := Decompose(shape, mgl64.Vec3{1, 0, 0})
	if d.Mesh == nil {
		t.Fatal("expected a mesh")
	}
	var sum mgl64.Vec3
	for _, v := range d.Mesh.Vertices {
		sum = sum.Add(mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
	}
	centre := sum.Mul(1 / float64(len(d.Mesh.Vertices)))
	if math.Abs(centre[0]) > 1e-3 {
		t.Errorf("mesh not shifted to origin, centre %v", centre)
	}
}

func boxShape(size mgl64.Vec3) scene.Node {
	return scene.NewShape(scene.NewMeshGenerator().Box(size))
}

func TestNarrowPhaseDetects(t *testing.T) {
	d := NewNarrowPhase()
	floor := d.AddGeometry(boxShape(mgl64.Vec3{10, 10, 1}))
	cube := d.AddGeometry(boxShape(mgl64.Vec3{1, 1, 1}))
	d.SetGeometryStatic(floor, true)
	d.MakeReady()

	d.UpdatePosition(floor, mgl64.Translate3D(0, 0, -0.5))
	d.UpdatePosition(cube, mgl64.Translate3D(0, 0, 0.49))

	var pairs []Pair
	d.DetectCollisions(func(p Pair) { pairs = append(pairs, p) })
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	p := pairs[0]
	if p.GeometryID != [2]int{floor, cube} {
		t.Errorf("unexpected ids %v", p.GeometryID)
	}
	if len(p.Collisions) == 0 {
		t.Fatal("no collisions reported")
	}
	for _, c := range p.Collisions {
		if c.Normal[2] < 0.99 {
			t.Errorf("normal should point from floor to cube, got %v", c.Normal)
		}
		if math.Abs(c.Depth-0.01) > 1e-6 {
			t.Errorf("expected depth 0.01, got %v", c.Depth)
		}
	}
}

func TestNarrowPhaseFilters(t *testing.T) {
	d := NewNarrowPhase()
	a := d.AddGeometry(boxShape(mgl64.Vec3{1, 1, 1}))
	b := d.AddGeometry(boxShape(mgl64.Vec3{1, 1, 1}))
	none := d.AddGeometry(nil)
	if none != 2 || d.NumGeometries() != 3 {
		t.Fatalf("nil shape must still consume an id")
	}
	count := func() int {
		n := 0
		d.DetectCollisions(func(Pair) { n++ })
		return n
	}
	d.UpdatePosition(b, mgl64.Translate3D(0.5, 0, 0))
	if count() != 1 {
		t.Fatal("overlapping boxes not reported")
	}

	d.SetGeometryStatic(a, true)
	d.SetGeometryStatic(b, true)
	if count() != 0 {
		t.Error("static pair reported")
	}

	d.SetGeometryStatic(b, false)
	d.SetNonInterferingPair(b, a)
	if count() != 0 {
		t.Error("non-interfering pair reported")
	}

	d.ClearGeometries()
	if d.NumGeometries() != 0 || count() != 0 {
		t.Error("clear left geometries behind")
	}
}

func TestNarrowPhaseCache(t *testing.T) {
	d := NewNarrowPhase()
	d.EnableGeometryCache(true)
	shape := boxShape(mgl64.Vec3{1, 1, 1})
	a := d.AddGeometry(shape)
	b := d.AddGeometry(shape)
	if len(d.cache) != 1 {
		t.Fatalf("expected one cached decomposition, got %d", len(d.cache))
	}
	if d.geoms[a].parts[0].geom == d.geoms[b].parts[0].geom {
		t.Error("cached geometries share a primitive")
	}
	d.ClearGeometryCache(shape)
	if len(d.cache) != 0 {
		t.Error("cache not cleared")
	}
}

func TestAddBody(t *testing.T) {
	root := kin.NewLink("BASE")
	root.JointType = kin.JointFree
	root.Shape = boxShape(mgl64.Vec3{1, 1, 1})
	arm := kin.NewLink("ARM")
	arm.JointType = kin.JointRevolute
	arm.Shape = boxShape(mgl64.Vec3{1, 1, 1})
	tip := kin.NewLink("TIP")
	tip.JointType = kin.JointRevolute
	tip.Shape = boxShape(mgl64.Vec3{1, 1, 1})
	root.AppendChild(arm)
	arm.AppendChild(tip)
	body := kin.NewBody("arm")
	body.SetRootLink(root)

	d := NewNarrowPhase()
	d.AddGeometry(nil)
	base := AddBody(d, body, true)
	if base != 1 || d.NumGeometries() != 4 {
		t.Fatalf("unexpected base %d / count %d", base, d.NumGeometries())
	}
	if _, ok := d.excluded[key(base, base+1)]; !ok {
		t.Error("parent and child should not interfere")
	}
	if _, ok := d.excluded[key(base, base+2)]; ok {
		t.Error("self collision between non-adjacent links was disabled")
	}
}
