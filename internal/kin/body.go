package kin

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// Body is one articulated model: a tree of links plus the devices and
// loop-closure joints attached to it.
type Body struct {
	Name string

	root        *Link
	links       []*Link
	joints      []*Link
	devices     []Device
	extraJoints []*ExtraJoint
	info        map[string]any

	// VirtualJointForces, when set, is run before each actuation phase to
	// write extra joint torques into Link.U.
	VirtualJointForces func(b *Body)
}

func NewBody(name string) *Body {
	return &Body{Name: name, info: make(map[string]any)}
}

// SetRootLink installs the tree and assigns link indices in pre-order.
func (b *Body) SetRootLink(root *Link) {
	b.root = root
	b.UpdateLinkTree()
}

func (b *Body) UpdateLinkTree() {
	b.links = b.links[:0]
	b.joints = b.joints[:0]
	if b.root == nil {
		return
	}
	var walk func(l *Link)
	walk = func(l *Link) {
		l.index = len(b.links)
		l.body = b
		b.links = append(b.links, l)
		if l.JointID >= 0 {
			for len(b.joints) <= l.JointID {
				b.joints = append(b.joints, nil)
			}
			b.joints[l.JointID] = l
		}
		for c := l.child; c != nil; c = c.sibling {
			walk(c)
		}
	}
	walk(b.root)
}

func (b *Body) RootLink() *Link { return b.root }
func (b *Body) NumLinks() int   { return len(b.links) }
func (b *Body) Link(i int) *Link {
	return b.links[i]
}
func (b *Body) Links() []*Link { return b.links }

func (b *Body) LinkByName(name string) *Link {
	for _, l := range b.links {
		if l.name == name {
			return l
		}
	}
	return nil
}

func (b *Body) NumJoints() int { return len(b.joints) }

// Joint returns the link owning joint id, or nil.
func (b *Body) Joint(id int) *Link {
	if id < 0 || id >= len(b.joints) {
		return nil
	}
	return b.joints[id]
}

// IsStaticModel reports whether no link of the body can move.
func (b *Body) IsStaticModel() bool {
	if b.root == nil {
		return true
	}
	for _, l := range b.links {
		if l.JointType != JointFixed {
			return false
		}
	}
	return true
}

func (b *Body) IsFixedRootModel() bool {
	return b.root != nil && b.root.JointType == JointFixed
}

func (b *Body) Devices() []Device { return b.devices }

func (b *Body) AddDevice(d Device) {
	b.devices = append(b.devices, d)
}

// DevicesOf returns the devices of b having concrete type T, in order.
func DevicesOf[T Device](b *Body) []T {
	var out []T
	for _, d := range b.devices {
		if t, ok := d.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func (b *Body) ExtraJoints() []*ExtraJoint { return b.extraJoints }

func (b *Body) AddExtraJoint(j *ExtraJoint) {
	b.extraJoints = append(b.extraJoints, j)
}

func (b *Body) Info(key string) (any, bool) {
	v, ok := b.info[key]
	return v, ok
}

func (b *Body) SetInfo(key string, v any) {
	b.info[key] = v
}

func (b *Body) SetVirtualJointForces() {
	if b.VirtualJointForces != nil {
		b.VirtualJointForces(b)
	}
}

func (b *Body) ClearExternalForces() {
	for _, l := range b.links {
		l.FExt = mgl64.Vec3{}
		l.TauExt = mgl64.Vec3{}
	}
}

// CalcForwardKinematics propagates the root pose (and optionally velocity
// and acceleration) down the tree from the joint variables.
func (b *Body) CalcForwardKinematics(calcVelocity, calcAcceleration bool) {
	if b.root == nil {
		return
	}
	for _, l := range b.links[1:] {
		p := l.parent
		switch l.JointType {
		case JointRevolute:
			l.R = p.R.Mul3(rotation(l.Axis, l.Q))
			l.P = p.P.Add(p.R.Mul3x1(l.B))
		case JointPrismatic:
			l.R = p.R
			l.P = p.P.Add(p.R.Mul3x1(l.B.Add(l.Axis.Mul(l.Q))))
		default:
			l.R = p.R
			l.P = p.P.Add(p.R.Mul3x1(l.B))
		}

		if !calcVelocity {
			continue
		}
		arm := l.P.Sub(p.P)
		l.W = p.W
		l.V = p.V.Add(p.W.Cross(arm))
		var sv, sw mgl64.Vec3
		switch l.JointType {
		case JointRevolute:
			sw = p.R.Mul3x1(l.Axis)
			l.W = l.W.Add(sw.Mul(l.Dq))
		case JointPrismatic:
			sv = p.R.Mul3x1(l.Axis)
			l.V = l.V.Add(sv.Mul(l.Dq))
		}

		if !calcAcceleration {
			continue
		}
		l.Dw = p.Dw
		l.Dv = p.Dv.Add(p.Dw.Cross(arm)).Add(p.W.Cross(p.W.Cross(arm)))
		switch l.JointType {
		case JointRevolute:
			l.Dw = l.Dw.Add(p.W.Cross(sw.Mul(l.Dq))).Add(sw.Mul(l.Ddq))
		case JointPrismatic:
			l.Dv = l.Dv.Add(p.W.Cross(sv.Mul(l.Dq)).Mul(2)).Add(sv.Mul(l.Ddq))
		}
	}
}

// Clone deep-copies the link tree, devices and loop-closure joints.
func (b *Body) Clone() *Body {
	c := NewBody(b.Name)
	c.VirtualJointForces = b.VirtualJointForces
	for k, v := range b.info {
		c.info[k] = v
	}
	if b.root == nil {
		return c
	}

	copies := make([]*Link, len(b.links))
	for i, l := range b.links {
		copies[i] = l.clone()
	}
	for i, l := range b.links {
		if l.parent != nil {
			copies[l.parent.index].AppendChild(copies[i])
		}
	}
	c.SetRootLink(copies[0])

	for _, d := range b.devices {
		nd := d.Clone()
		if d.Link() != nil {
			nd.SetLink(copies[d.Link().index])
		}
		c.AddDevice(nd)
	}
	for _, j := range b.extraJoints {
		nj := *j
		for k := range nj.Links {
			if j.Links[k] != nil {
				nj.Links[k] = copies[j.Links[k].index]
			}
		}
		c.AddExtraJoint(&nj)
	}
	return c
}

func rotation(axis mgl64.Vec3, angle float64) mgl64.Mat3 {
	if axis.Len() == 0 {
		return mgl64.Ident3()
	}
	return mgl64.HomogRotate3D(angle, axis.Normalize()).Mat3()
}
