// Package scene holds the shape graph attached to kinematic links and the
// utilities that flatten it into meshes.
//
// A graph is built from [Group], [PosTransform], [ScaleTransform] and
// [Shape] nodes. [Extractor] walks a graph and reports every mesh with its
// accumulated transform, with and without scaling.
package scene

import "github.com/go-gl/mathgl/mgl64"

type Node interface {
	children() []Node
}

type Group struct {
	Name     string
	Children []Node
}

func NewGroup(children ...Node) *Group {
	return &Group{Children: children}
}

func (g *Group) children() []Node { return g.Children }

func (g *Group) Add(n Node) { g.Children = append(g.Children, n) }

// PosTransform is a rigid transform (rotation then translation).
type PosTransform struct {
	Name        string
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
	Children    []Node
}

func NewPosTransform(r mgl64.Mat3, p mgl64.Vec3, children ...Node) *PosTransform {
	return &PosTransform{Rotation: r, Translation: p, Children: children}
}

func NewTranslation(p mgl64.Vec3, children ...Node) *PosTransform {
	return NewPosTransform(mgl64.Ident3(), p, children...)
}

func (t *PosTransform) children() []Node { return t.Children }

func (t *PosTransform) Matrix() mgl64.Mat4 {
	return Affine(t.Rotation, t.Translation)
}

type ScaleTransform struct {
	Name     string
	Scale    mgl64.Vec3
	Children []Node
}

func NewScaleTransform(s mgl64.Vec3, children ...Node) *ScaleTransform {
	return &ScaleTransform{Scale: s, Children: children}
}

func (t *ScaleTransform) children() []Node { return t.Children }

func (t *ScaleTransform) Matrix() mgl64.Mat4 {
	return mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
}

type Shape struct {
	Name string
	Mesh *Mesh
}

func NewShape(m *Mesh) *Shape {
	return &Shape{Mesh: m}
}

func (s *Shape) children() []Node { return nil }

// Affine builds a homogeneous transform from a linear part and a translation.
func Affine(r mgl64.Mat3, p mgl64.Vec3) mgl64.Mat4 {
	m := r.Mat4()
	m.SetCol(3, p.Vec4(1))
	return m
}

func Linear(m mgl64.Mat4) mgl64.Mat3 {
	return m.Mat3()
}

func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

func TransformPoint(m mgl64.Mat4, v mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}
