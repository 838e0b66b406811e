package scene

import "github.com/go-gl/mathgl/mgl64"

// Extractor walks a shape graph depth-first and calls back once per mesh.
// The Current* accessors are valid only inside the callback.
type Extractor struct {
	mesh       *Mesh
	transform  mgl64.Mat4
	unscaled   mgl64.Mat4
	scaled     bool
	visitedAny bool
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reports whether at least one mesh was found.
func (e *Extractor) Extract(root Node, fn func()) bool {
	e.visitedAny = false
	if root == nil {
		return false
	}
	e.visit(root, mgl64.Ident4(), mgl64.Ident4(), false, fn)
	e.mesh = nil
	return e.visitedAny
}

func (e *Extractor) visit(n Node, t, u mgl64.Mat4, scaled bool, fn func()) {
	switch node := n.(type) {
	case *PosTransform:
		m := node.Matrix()
		t = t.Mul4(m)
		u = u.Mul4(m)
	case *ScaleTransform:
		t = t.Mul4(node.Matrix())
		scaled = true
	case *Shape:
		if node.Mesh == nil {
			return
		}
		e.mesh = node.Mesh
		e.transform = t
		e.unscaled = u
		e.scaled = scaled
		e.visitedAny = true
		fn()
		return
	}
	for _, c := range n.children() {
		e.visit(c, t, u, scaled, fn)
	}
}

func (e *Extractor) CurrentMesh() *Mesh { return e.mesh }

func (e *Extractor) CurrentTransform() mgl64.Mat4 { return e.transform }

func (e *Extractor) CurrentTransformWithoutScaling() mgl64.Mat4 { return e.unscaled }

func (e *Extractor) IsCurrentScaled() bool { return e.scaled }
