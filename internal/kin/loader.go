package kin

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/scene"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Loader fills a Body from a model file.
type Loader interface {
	Format() string
	SetMessageSink(log *logrus.Logger)
	SetVerbose(on bool)
	SetShapeLoadingEnabled(on bool)
	SetDefaultDivisionNumber(n int)
	Load(body *Body, filename string) error
}

// YAMLLoader reads the body format described by modelFile. Angles are in
// radians, lengths in meters.
type YAMLLoader struct {
	log        *logrus.Logger
	verbose    bool
	loadShapes bool
	meshGen    *scene.MeshGenerator
}

func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{
		log:        logrus.StandardLogger(),
		loadShapes: true,
		meshGen:    scene.NewMeshGenerator(),
	}
}

type modelFile struct {
	Name        string           `yaml:"name"`
	Links       []linkSpec       `yaml:"links"`
	Devices     []deviceSpec     `yaml:"devices"`
	ExtraJoints []extraJointSpec `yaml:"extraJoints"`
}

type linkSpec struct {
	Name         string      `yaml:"name"`
	Parent       string      `yaml:"parent"`
	JointType    string      `yaml:"jointType"`
	JointID      *int        `yaml:"jointId"`
	JointAxis    []float64   `yaml:"jointAxis"`
	JointRange   []float64   `yaml:"jointRange"`
	Translation  []float64   `yaml:"translation"`
	Rotation     []float64   `yaml:"rotation"`
	Mass         float64     `yaml:"mass"`
	CenterOfMass []float64   `yaml:"centerOfMass"`
	Inertia      []float64   `yaml:"inertia"`
	RotorInertia float64     `yaml:"rotorInertia"`
	GearRatio    float64     `yaml:"gearRatio"`
	Q            float64     `yaml:"q"`
	Elements     []shapeSpec `yaml:"elements"`
}

type shapeSpec struct {
	Type        string    `yaml:"type"`
	Size        []float64 `yaml:"size"`
	Radius      float64   `yaml:"radius"`
	Height      float64   `yaml:"height"`
	Vertices    []float64 `yaml:"vertices"`
	Triangles   []int32   `yaml:"triangles"`
	Translation []float64 `yaml:"translation"`
	Rotation    []float64 `yaml:"rotation"`
	Scale       []float64 `yaml:"scale"`
}

type deviceSpec struct {
	Type        string    `yaml:"type"`
	Name        string    `yaml:"name"`
	Link        string    `yaml:"link"`
	Translation []float64 `yaml:"translation"`
	Rotation    []float64 `yaml:"rotation"`
	Normal      []float64 `yaml:"normal"`
	MaxPull     float64   `yaml:"maxPullForce"`
	MaxShear    float64   `yaml:"maxShearForce"`
	MaxPeel     float64   `yaml:"maxPeelTorque"`
	MaxFasten   float64   `yaml:"maxFasteningForce"`
}

type extraJointSpec struct {
	Type   string      `yaml:"type"`
	Links  []string    `yaml:"links"`
	Points [][]float64 `yaml:"points"`
	Axis   []float64   `yaml:"axis"`
}

var knownKeys = map[string]bool{"name": true, "links": true, "devices": true, "extraJoints": true}

func (l *YAMLLoader) Format() string { return "yaml" }

func (l *YAMLLoader) SetMessageSink(log *logrus.Logger) { l.log = log }

func (l *YAMLLoader) SetVerbose(on bool) { l.verbose = on }

func (l *YAMLLoader) SetShapeLoadingEnabled(on bool) { l.loadShapes = on }

func (l *YAMLLoader) SetDefaultDivisionNumber(n int) { l.meshGen.Division = n }

func (l *YAMLLoader) Load(body *Body, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := l.Parse(body, data); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

func (l *YAMLLoader) Parse(body *Body, data []byte) error {
	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(mf.Links) == 0 {
		return ErrNoRootLink
	}
	if mf.Name != "" {
		body.Name = mf.Name
	}
	for k, v := range raw {
		if !knownKeys[k] {
			body.SetInfo(k, v)
		}
	}

	byName := make(map[string]*Link, len(mf.Links))
	var root *Link
	for i, ls := range mf.Links {
		link, err := l.buildLink(ls)
		if err != nil {
			return fmt.Errorf("link %q: %w", ls.Name, err)
		}
		byName[ls.Name] = link
		if i == 0 {
			root = link
			link.P = link.B
			if len(ls.Rotation) == 4 {
				link.R = axisAngle(ls.Rotation)
			}
			continue
		}
		parent, ok := byName[ls.Parent]
		if !ok {
			return fmt.Errorf("link %q parent %q: %w", ls.Name, ls.Parent, ErrUnknownLink)
		}
		parent.AppendChild(link)
	}
	body.SetRootLink(root)

	for _, ds := range mf.Devices {
		link, ok := byName[ds.Link]
		if !ok {
			return fmt.Errorf("device %q link %q: %w", ds.Name, ds.Link, ErrUnknownLink)
		}
		dev, err := buildDevice(ds, link)
		if err != nil {
			return err
		}
		body.AddDevice(dev)
	}

	for _, js := range mf.ExtraJoints {
		j := &ExtraJoint{Axis: vec3(js.Axis, mgl64.Vec3{0, 0, 1})}
		if js.Type == "piston" {
			j.Type = ExtraJointPiston
		}
		for k := 0; k < 2 && k < len(js.Links); k++ {
			j.Links[k] = byName[js.Links[k]]
			if k < len(js.Points) {
				j.Points[k] = vec3(js.Points[k], mgl64.Vec3{})
			}
		}
		body.AddExtraJoint(j)
	}

	body.CalcForwardKinematics(false, false)

	if l.verbose {
		l.log.WithFields(logrus.Fields{
			"body":    body.Name,
			"links":   body.NumLinks(),
			"joints":  body.NumJoints(),
			"devices": len(body.Devices()),
		}).Info("model loaded")
	}
	return nil
}

func (l *YAMLLoader) buildLink(ls linkSpec) (*Link, error) {
	link := NewLink(ls.Name)
	if ls.JointType != "" {
		jt, ok := ParseJointType(ls.JointType)
		if !ok {
			return nil, fmt.Errorf("%q: %w", ls.JointType, ErrUnknownJointType)
		}
		link.JointType = jt
	}
	if ls.JointID != nil {
		link.JointID = *ls.JointID
	}
	link.Axis = vec3(ls.JointAxis, link.Axis)
	if len(ls.JointRange) == 2 {
		link.QLower, link.QUpper = ls.JointRange[0], ls.JointRange[1]
	}
	link.B = vec3(ls.Translation, mgl64.Vec3{})
	link.M = ls.Mass
	link.C = vec3(ls.CenterOfMass, mgl64.Vec3{})
	if len(ls.Inertia) == 9 {
		link.I = mgl64.Mat3FromRows(
			mgl64.Vec3{ls.Inertia[0], ls.Inertia[1], ls.Inertia[2]},
			mgl64.Vec3{ls.Inertia[3], ls.Inertia[4], ls.Inertia[5]},
			mgl64.Vec3{ls.Inertia[6], ls.Inertia[7], ls.Inertia[8]},
		)
	}
	gear := ls.GearRatio
	if gear == 0 {
		gear = 1
	}
	link.Jm2 = ls.RotorInertia * gear * gear
	link.Q = ls.Q

	if l.loadShapes && len(ls.Elements) > 0 {
		group := scene.NewGroup()
		for _, ss := range ls.Elements {
			node, err := l.buildShape(ss)
			if err != nil {
				l.log.WithFields(logrus.Fields{"link": ls.Name, "shape": ss.Type}).Warn(err)
				continue
			}
			group.Add(node)
		}
		link.Shape = group
	}
	return link, nil
}

func (l *YAMLLoader) buildShape(ss shapeSpec) (scene.Node, error) {
	var mesh *scene.Mesh
	switch ss.Type {
	case "box":
		mesh = l.meshGen.Box(vec3(ss.Size, mgl64.Vec3{1, 1, 1}))
	case "sphere":
		mesh = l.meshGen.Sphere(ss.Radius)
	case "cylinder":
		mesh = l.meshGen.Cylinder(ss.Radius, ss.Height)
	case "mesh":
		mesh = &scene.Mesh{Primitive: scene.MeshType}
		for i := 0; i+2 < len(ss.Vertices); i += 3 {
			mesh.Vertices = append(mesh.Vertices, mgl32.Vec3{
				float32(ss.Vertices[i]), float32(ss.Vertices[i+1]), float32(ss.Vertices[i+2]),
			})
		}
		for i := 0; i+2 < len(ss.Triangles); i += 3 {
			mesh.Triangles = append(mesh.Triangles, [3]int32{ss.Triangles[i], ss.Triangles[i+1], ss.Triangles[i+2]})
		}
	default:
		return nil, fmt.Errorf("unsupported shape type %q", ss.Type)
	}

	var node scene.Node = scene.NewShape(mesh)
	if len(ss.Scale) == 3 {
		node = scene.NewScaleTransform(vec3(ss.Scale, mgl64.Vec3{1, 1, 1}), node)
	}
	if len(ss.Translation) == 3 || len(ss.Rotation) == 4 {
		r := mgl64.Ident3()
		if len(ss.Rotation) == 4 {
			r = axisAngle(ss.Rotation)
		}
		node = scene.NewPosTransform(r, vec3(ss.Translation, mgl64.Vec3{}), node)
	}
	return node, nil
}

func buildDevice(ds deviceSpec, link *Link) (Device, error) {
	var m *Mount
	var dev Device
	switch ds.Type {
	case "ForceSensor":
		s := NewForceSensor(ds.Name, link)
		m, dev = &s.Mount, s
	case "RateGyro":
		s := NewRateGyro(ds.Name, link)
		m, dev = &s.Mount, s
	case "AccelerationSensor":
		s := NewAccelerationSensor(ds.Name, link)
		m, dev = &s.Mount, s
	case "VacuumGripper":
		g := NewVacuumGripper(ds.Name, link)
		g.Normal = vec3(ds.Normal, g.Normal)
		if ds.MaxPull > 0 {
			g.MaxPullForce = ds.MaxPull
		}
		if ds.MaxShear > 0 {
			g.MaxShearForce = ds.MaxShear
		}
		if ds.MaxPeel > 0 {
			g.MaxPeelTorque = ds.MaxPeel
		}
		m, dev = &g.Mount, g
	case "NailDriver":
		n := NewNailDriver(ds.Name, link)
		n.Normal = vec3(ds.Normal, n.Normal)
		if ds.MaxFasten > 0 {
			n.MaxFasteningForce = ds.MaxFasten
		}
		m, dev = &n.Mount, n
	default:
		return nil, fmt.Errorf("device %q type %q: %w", ds.Name, ds.Type, ErrUnknownDevice)
	}
	m.PLocal = vec3(ds.Translation, mgl64.Vec3{})
	if len(ds.Rotation) == 4 {
		m.RLocal = axisAngle(ds.Rotation)
	}
	return dev, nil
}

func vec3(v []float64, def mgl64.Vec3) mgl64.Vec3 {
	if len(v) != 3 {
		return def
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func axisAngle(v []float64) mgl64.Mat3 {
	return rotation(mgl64.Vec3{v[0], v[1], v[2]}, v[3])
}
