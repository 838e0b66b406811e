package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestExtractorAccumulatesTransforms(t *testing.T) {
	gen := NewMeshGenerator()
	box := NewShape(gen.Box(mgl64.Vec3{1, 2, 3}))
	root := NewGroup(
		NewTranslation(mgl64.Vec3{1, 0, 0},
			NewScaleTransform(mgl64.Vec3{2, 2, 2}, box)),
	)

	ex := NewExtractor()
	count := 0
	found := ex.Extract(root, func() {
		count++
		if !ex.IsCurrentScaled() {
			t.Errorf("expected scaled mesh")
		}
		p := Translation(ex.CurrentTransformWithoutScaling())
		if p.Sub(mgl64.Vec3{1, 0, 0}).Len() > 1e-12 {
			t.Errorf("unexpected unscaled translation %v", p)
		}
		s := Linear(ex.CurrentTransform())
		if math.Abs(s.At(0, 0)-2) > 1e-12 {
			t.Errorf("expected scale 2, got %f", s.At(0, 0))
		}
	})

	if !found || count != 1 {
		t.Errorf("expected one mesh, found=%v count=%d", found, count)
	}
}

func TestExtractorEmptyGraph(t *testing.T) {
	ex := NewExtractor()
	if ex.Extract(NewGroup(), func() { t.Error("unexpected callback") }) {
		t.Error("expected no meshes")
	}
	if ex.Extract(nil, func() {}) {
		t.Error("expected no meshes for nil root")
	}
}

func TestMeshGenerator(t *testing.T) {
	gen := NewMeshGenerator()

	tests := []struct {
		name string
		mesh *Mesh
		kind Primitive
	}{
		{"box", gen.Box(mgl64.Vec3{1, 1, 1}), BoxType},
		{"sphere", gen.Sphere(0.5), SphereType},
		{"cylinder", gen.Cylinder(0.5, 1), CylinderType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mesh.Primitive != tt.kind {
				t.Errorf("expected %v, got %v", tt.kind, tt.mesh.Primitive)
			}
			if tt.mesh.Empty() {
				t.Fatal("mesh is empty")
			}
			for _, tri := range tt.mesh.Triangles {
				for _, idx := range tri {
					if int(idx) >= len(tt.mesh.Vertices) || idx < 0 {
						t.Fatalf("index %d out of range", idx)
					}
				}
			}
		})
	}
}
