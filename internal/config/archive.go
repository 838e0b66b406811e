package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Archive is a flat key/value record. Read leaves out untouched and
// returns false when the key is missing or has the wrong shape.
type Archive interface {
	Write(key string, value any)
	Read(key string, out any) bool
	Get(key, def string) string
}

// Archive keys of the simulator properties.
const (
	KeyStepMode           = "stepMode"
	KeyGravity            = "gravity"
	KeyFriction           = "friction"
	KeyJointLimitMode     = "jointLimitMode"
	KeyGlobalERP          = "globalERP"
	KeyGlobalCFM          = "globalCFM"
	KeyNumIterations      = "numIterations"
	KeyOverRelaxation     = "overRelaxation"
	KeyLimitCorrectingVel = "limitCorrectingVel"
	KeyMaxCorrectingVel   = "maxCorrectingVel"
	KeySurfaceLayerDepth  = "surfaceLayerDepth"
	Key2DMode             = "2Dmode"
	KeyUseWorldCollision  = "UseWorldItem'sCollisionDetector"
	KeyVelocityMode       = "velocityMode"
)

// Store writes every property of s to a.
func (s *Simulator) Store(a Archive) {
	a.Write(KeyStepMode, s.StepMode)
	a.Write(KeyGravity, s.Gravity)
	a.Write(KeyFriction, s.Friction)
	a.Write(KeyJointLimitMode, s.JointLimitMode)
	a.Write(KeyGlobalERP, s.GlobalERP)
	a.Write(KeyGlobalCFM, s.GlobalCFM.String())
	a.Write(KeyNumIterations, s.NumIterations)
	a.Write(KeyOverRelaxation, s.OverRelaxation)
	a.Write(KeyLimitCorrectingVel, s.LimitCorrectingVel)
	a.Write(KeyMaxCorrectingVel, s.MaxCorrectingVel.String())
	a.Write(KeySurfaceLayerDepth, s.SurfaceLayerDepth)
	a.Write(Key2DMode, s.Mode2D)
	a.Write(KeyUseWorldCollision, s.UseWorldCollision)
	a.Write(KeyVelocityMode, s.VelocityMode)
}

// Restore reads the properties present in a. Missing keys keep their
// current value; an unparsable number string is reported and skipped.
func (s *Simulator) Restore(a Archive) error {
	var mode string
	if a.Read(KeyStepMode, &mode) {
		if err := s.SetStepMode(mode); err != nil {
			return err
		}
	}
	a.Read(KeyGravity, &s.Gravity)
	a.Read(KeyFriction, &s.Friction)
	a.Read(KeyJointLimitMode, &s.JointLimitMode)
	a.Read(KeyGlobalERP, &s.GlobalERP)
	a.Read(KeyNumIterations, &s.NumIterations)
	a.Read(KeyOverRelaxation, &s.OverRelaxation)
	a.Read(KeyLimitCorrectingVel, &s.LimitCorrectingVel)
	a.Read(KeySurfaceLayerDepth, &s.SurfaceLayerDepth)
	a.Read(Key2DMode, &s.Mode2D)
	a.Read(KeyUseWorldCollision, &s.UseWorldCollision)
	a.Read(KeyVelocityMode, &s.VelocityMode)

	cfm, err := ParseFloatString(a.Get(KeyGlobalCFM, s.GlobalCFM.String()))
	if err != nil {
		return fmt.Errorf("%s: %w", KeyGlobalCFM, err)
	}
	s.GlobalCFM = cfm
	vel, err := ParseFloatString(a.Get(KeyMaxCorrectingVel, s.MaxCorrectingVel.String()))
	if err != nil {
		return fmt.Errorf("%s: %w", KeyMaxCorrectingVel, err)
	}
	s.MaxCorrectingVel = vel
	return nil
}

// MapArchive is an in-memory Archive that keeps insertion order and
// serializes to a yaml mapping.
type MapArchive struct {
	values *orderedmap.OrderedMap[string, any]
}

func NewMapArchive() *MapArchive {
	return &MapArchive{values: orderedmap.NewOrderedMap[string, any]()}
}

func LoadArchive(path string) (*MapArchive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a := NewMapArchive()
	if err := yaml.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return a, nil
}

func (a *MapArchive) Save(path string) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (a *MapArchive) Keys() []string { return a.values.Keys() }

// Write stores value under key. Overwriting keeps the key's position.
func (a *MapArchive) Write(key string, value any) {
	if v, ok := value.(mgl64.Vec3); ok {
		value = []any{v[0], v[1], v[2]}
	}
	a.values.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (a *MapArchive) Delete(key string) bool { return a.values.Delete(key) }

func (a *MapArchive) Read(key string, out any) bool {
	v, ok := a.values.Get(key)
	if !ok {
		return false
	}
	switch p := out.(type) {
	case *string:
		s, ok := v.(string)
		if ok {
			*p = s
		}
		return ok
	case *bool:
		b, ok := v.(bool)
		if ok {
			*p = b
		}
		return ok
	case *int:
		switch n := v.(type) {
		case int:
			*p = n
			return true
		case float64:
			if n == float64(int(n)) {
				*p = int(n)
				return true
			}
		}
		return false
	case *float64:
		f, ok := toFloat(v)
		if ok {
			*p = f
		}
		return ok
	case *mgl64.Vec3:
		list, ok := v.([]any)
		if !ok || len(list) != 3 {
			return false
		}
		var out mgl64.Vec3
		for i, e := range list {
			f, ok := toFloat(e)
			if !ok {
				return false
			}
			out[i] = f
		}
		*p = out
		return true
	}
	return false
}

// Get returns the value under key as text, or def when it is missing.
func (a *MapArchive) Get(key, def string) string {
	v, ok := a.values.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return def
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func (a *MapArchive) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for el := a.values.Front(); el != nil; el = el.Next() {
		var val yaml.Node
		if err := val.Encode(el.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", el.Key, err)
		}
		if list, ok := el.Value.([]any); ok && len(list) == 3 {
			val.Style = yaml.FlowStyle
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: el.Key}, &val)
	}
	return node, nil
}

func (a *MapArchive) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: archive must be a mapping", ErrInvalidValue)
	}
	a.values = orderedmap.NewOrderedMap[string, any]()
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return err
		}
		a.Write(n.Content[i].Value, v)
	}
	return nil
}
