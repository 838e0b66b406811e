package kin

import "github.com/go-gl/mathgl/mgl64"

// Device is anything mounted on a link that the simulator reads or writes.
type Device interface {
	Name() string
	Link() *Link
	SetLink(l *Link)
	Clone() Device
	NotifyStateChange()
	OnStateChange(fn func())
}

// Mount is the shared part of every device: its link and local frame.
type Mount struct {
	DeviceName string
	link       *Link
	PLocal     mgl64.Vec3
	RLocal     mgl64.Mat3
	listeners  []func()
}

func NewMount(name string, link *Link) Mount {
	return Mount{DeviceName: name, link: link, RLocal: mgl64.Ident3()}
}

func (m *Mount) Name() string      { return m.DeviceName }
func (m *Mount) Link() *Link       { return m.link }
func (m *Mount) SetLink(l *Link)   { m.link = l }
func (m *Mount) OnStateChange(fn func()) {
	m.listeners = append(m.listeners, fn)
}

func (m *Mount) NotifyStateChange() {
	for _, fn := range m.listeners {
		fn()
	}
}

// WorldPose returns the device frame in world coordinates.
func (m *Mount) WorldPose() (mgl64.Vec3, mgl64.Mat3) {
	r := m.link.R
	return m.link.P.Add(r.Mul3x1(m.PLocal)), r.Mul3(m.RLocal)
}

func (m Mount) cloned() Mount {
	m.listeners = nil
	return m
}

// ForceSensor reports the joint reaction of its link in the sensor frame.
type ForceSensor struct {
	Mount
	F   mgl64.Vec3
	Tau mgl64.Vec3
}

func NewForceSensor(name string, link *Link) *ForceSensor {
	return &ForceSensor{Mount: NewMount(name, link)}
}

func (s *ForceSensor) Clone() Device {
	c := *s
	c.Mount = s.Mount.cloned()
	return &c
}

type RateGyro struct {
	Mount
	W mgl64.Vec3
}

func NewRateGyro(name string, link *Link) *RateGyro {
	return &RateGyro{Mount: NewMount(name, link)}
}

func (s *RateGyro) Clone() Device {
	c := *s
	c.Mount = s.Mount.cloned()
	return &c
}

// AccelerationSensor reports proper acceleration (gravity included) in the
// sensor frame.
type AccelerationSensor struct {
	Mount
	DV mgl64.Vec3
}

func NewAccelerationSensor(name string, link *Link) *AccelerationSensor {
	return &AccelerationSensor{Mount: NewMount(name, link)}
}

func (s *AccelerationSensor) Clone() Device {
	c := *s
	c.Mount = s.Mount.cloned()
	return &c
}

// VacuumGripper holds objects pressed against its suction face. Normal is
// the outward face normal in the link frame.
type VacuumGripper struct {
	Mount
	Normal        mgl64.Vec3
	MaxPullForce  float64
	MaxShearForce float64
	MaxPeelTorque float64
	on            bool
}

func NewVacuumGripper(name string, link *Link) *VacuumGripper {
	return &VacuumGripper{
		Mount:         NewMount(name, link),
		Normal:        mgl64.Vec3{0, 0, -1},
		MaxPullForce:  posInf,
		MaxShearForce: posInf,
		MaxPeelTorque: posInf,
	}
}

func (g *VacuumGripper) On() bool { return g.on }

func (g *VacuumGripper) SetOn(on bool) {
	if g.on != on {
		g.on = on
		g.NotifyStateChange()
	}
}

func (g *VacuumGripper) Clone() Device {
	c := *g
	c.Mount = g.Mount.cloned()
	return &c
}

// NailDriver fastens the object under its muzzle to the environment.
// MaxFasteningForce is the holding force contributed by each nail.
type NailDriver struct {
	Mount
	Normal            mgl64.Vec3
	MaxFasteningForce float64
	on                bool
	ready             bool
}

func NewNailDriver(name string, link *Link) *NailDriver {
	return &NailDriver{
		Mount:             NewMount(name, link),
		Normal:            mgl64.Vec3{0, 0, -1},
		MaxFasteningForce: 200,
		ready:             true,
	}
}

func (n *NailDriver) On() bool { return n.on }

func (n *NailDriver) SetOn(on bool) {
	if n.on != on {
		n.on = on
		n.NotifyStateChange()
	}
}

func (n *NailDriver) Ready() bool { return n.ready }

func (n *NailDriver) SetReady(ready bool) {
	if n.ready != ready {
		n.ready = ready
		n.NotifyStateChange()
	}
}

func (n *NailDriver) Clone() Device {
	c := *n
	c.Mount = n.Mount.cloned()
	return &c
}
