package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBasisVectors(t *testing.T) {
	tests := []struct {
		name    string
		flipped bool
		model   mgl64.Vec3
		solver  mgl64.Vec3
	}{
		{"direct", false, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3}},
		{"flipped up", true, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}},
		{"flipped depth", true, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, -1}},
		{"flipped mixed", true, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 3, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := basisFor(tt.flipped)
			if got := b.vecToSolver(tt.model); got != tt.solver {
				t.Errorf("vecToSolver(%v) = %v, want %v", tt.model, got, tt.solver)
			}
			if got := b.vecToModel(tt.solver); got != tt.model {
				t.Errorf("vecToModel(%v) = %v, want %v", tt.solver, got, tt.model)
			}
			if got := b.m.Mul3x1(tt.model); !got.ApproxEqual(tt.solver) {
				t.Errorf("basis matrix maps %v to %v, want %v", tt.model, got, tt.solver)
			}
		})
	}
}

func TestBasisRotationRoundTrip(t *testing.T) {
	r := mgl64.Rotate3DY(0.4).Mul3(mgl64.Rotate3DX(-0.2))
	for _, flipped := range []bool{false, true} {
		b := basisFor(flipped)
		if got := b.rotToModel(b.rotToSolver(r)); !got.ApproxEqualThreshold(r, 1e-12) {
			t.Errorf("flipped=%v: round trip gave %v", flipped, got)
		}
		// a rotated vector maps the same way as the rotation
		v := mgl64.Vec3{0.3, -1, 2}
		want := b.vecToSolver(r.Mul3x1(v))
		if got := b.rotToSolver(r).Mul3x1(v); !got.ApproxEqualThreshold(want, 1e-12) {
			t.Errorf("flipped=%v: rotated vector %v, want %v", flipped, got, want)
		}
	}
}

func TestPoseToSolver(t *testing.T) {
	b := basisFor(true)
	tr := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.HomogRotate3DZ(0.5))
	p, r := b.poseToSolver(tr)
	if !p.ApproxEqual(mgl64.Vec3{1, 3, -2}) {
		t.Errorf("position = %v", p)
	}
	if want := flippedIdentity.Mul3(mgl64.Rotate3DZ(0.5)); !r.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("rotation = %v, want %v", r, want)
	}
}

func TestFlippedRotationAxis(t *testing.T) {
	const angle = 0.3
	tests := []struct {
		name  string
		model mgl64.Vec3
		// solver is the axis the same rotation turns about in solver space
		solver mgl64.Vec3
	}{
		{"about x", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"about z", mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}},
		{"about x+z", mgl64.Vec3{1, 0, 1}.Normalize(), mgl64.Vec3{1, 1, 0}.Normalize()},
		{"about x-y", mgl64.Vec3{1, -1, 0}.Normalize(), mgl64.Vec3{1, 0, 1}.Normalize()},
	}
	b := basisFor(true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mgl64.QuatRotate(angle, tt.model).Mat4().Mat3()
			want := mgl64.QuatRotate(angle, tt.solver).Mat4().Mat3().Mul3(flippedIdentity)
			got := b.rotToSolver(r)
			if !got.ApproxEqualThreshold(want, 1e-12) {
				t.Errorf("rotToSolver = %v, want %v", got, want)
			}
			if !b.vecToSolver(tt.model).ApproxEqualThreshold(tt.solver, 1e-12) {
				t.Errorf("axis maps to %v, want %v", b.vecToSolver(tt.model), tt.solver)
			}
			if back := b.rotToModel(got); !back.ApproxEqualThreshold(r, 1e-12) {
				t.Errorf("rotToModel = %v, want %v", back, r)
			}
		})
	}
}

func TestFlippedRotationEntries(t *testing.T) {
	s, c := math.Sin(0.3), math.Cos(0.3)
	r := mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0}).Mat4().Mat3()
	got := basisFor(true).rotToSolver(r)
	// rows: model x, model z, negated model y
	want := [3][3]float64{
		{1, 0, 0},
		{0, s, c},
		{0, -c, s},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(got.At(i, j)-want[i][j]) > 1e-12 {
				t.Errorf("R[%d][%d] = %v, want %v", i, j, got.At(i, j), want[i][j])
			}
		}
	}
}
