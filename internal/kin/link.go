package kin

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/scene"
)

type JointType int

const (
	JointFree JointType = iota
	JointRevolute
	JointPrismatic
	JointFixed
	// JointTracked is a crawler surface driven by a commanded rate.
	JointTracked
	JointPseudoContinuousTrack
)

func (j JointType) String() string {
	switch j {
	case JointFree:
		return "free"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	case JointFixed:
		return "fixed"
	case JointTracked:
		return "tracked"
	case JointPseudoContinuousTrack:
		return "pseudoContinuousTrack"
	default:
		return "unknown"
	}
}

func (j JointType) IsTracked() bool {
	return j == JointTracked || j == JointPseudoContinuousTrack
}

func ParseJointType(s string) (JointType, bool) {
	switch s {
	case "free":
		return JointFree, true
	case "revolute", "rotate", "rotational":
		return JointRevolute, true
	case "prismatic", "slide":
		return JointPrismatic, true
	case "fixed":
		return JointFixed, true
	case "tracked", "crawler":
		return JointTracked, true
	case "pseudoContinuousTrack", "pseudo_continuous_track":
		return JointPseudoContinuousTrack, true
	}
	return JointFixed, false
}

// Link is one node of a kinematic tree. Offsets and axes are expressed in
// the zero-configuration frame where every link attitude is the identity.
type Link struct {
	index   int
	name    string
	parent  *Link
	child   *Link
	sibling *Link
	body    *Body

	JointType JointType
	JointID   int
	JointName string

	// B is the joint origin relative to the parent link origin.
	B    mgl64.Vec3
	Axis mgl64.Vec3

	M   float64
	C   mgl64.Vec3
	I   mgl64.Mat3
	Jm2 float64

	QLower float64
	QUpper float64

	Q   float64
	Dq  float64
	Ddq float64
	U   float64

	P  mgl64.Vec3
	R  mgl64.Mat3
	V  mgl64.Vec3
	W  mgl64.Vec3
	Dv mgl64.Vec3
	Dw mgl64.Vec3

	FExt   mgl64.Vec3
	TauExt mgl64.Vec3

	Shape scene.Node
}

func NewLink(name string) *Link {
	return &Link{
		index:     -1,
		name:      name,
		JointType: JointFixed,
		JointID:   -1,
		Axis:      mgl64.Vec3{0, 0, 1},
		I:         mgl64.Ident3(),
		R:         mgl64.Ident3(),
		QLower:    negInf,
		QUpper:    posInf,
	}
}

func (l *Link) Index() int     { return l.index }
func (l *Link) Name() string   { return l.name }
func (l *Link) Parent() *Link  { return l.parent }
func (l *Link) Child() *Link   { return l.child }
func (l *Link) Sibling() *Link { return l.sibling }
func (l *Link) Body() *Body    { return l.body }
func (l *Link) IsRoot() bool   { return l.parent == nil }

// A and D both return the joint axis; A is used for rotation, D for sliding.
func (l *Link) A() mgl64.Vec3 { return l.Axis }
func (l *Link) D() mgl64.Vec3 { return l.Axis }

func (l *Link) Attitude() mgl64.Mat3 { return l.R }

func (l *Link) T() mgl64.Mat4 { return scene.Affine(l.R, l.P) }

func (l *Link) SetT(t mgl64.Mat4) {
	l.R = t.Mat3()
	l.P = scene.Translation(t)
}

// AppendChild attaches c as the last child of l.
func (l *Link) AppendChild(c *Link) {
	c.parent = l
	c.sibling = nil
	if l.child == nil {
		l.child = c
		return
	}
	last := l.child
	for last.sibling != nil {
		last = last.sibling
	}
	last.sibling = c
}

func (l *Link) Children() []*Link {
	var out []*Link
	for c := l.child; c != nil; c = c.sibling {
		out = append(out, c)
	}
	return out
}

func (l *Link) HasFiniteLimits() bool {
	return l.QLower > negInf && l.QUpper < posInf
}

func (l *Link) clone() *Link {
	c := *l
	c.parent, c.child, c.sibling, c.body = nil, nil, nil, nil
	return &c
}
