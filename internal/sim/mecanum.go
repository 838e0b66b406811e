package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/sirupsen/logrus"
)

// MecanumWheelSettingKey is the body info entry listing mecanum wheels:
//
//	mecanumWheelSetting:
//	  links: [wheel_fl, wheel_fr]
//	  barrelAngles: [0.785, -0.785]
//
// Listed links must have a tracked joint. A barrel angle is the
// inclination of the barrel axis against the axle; pi/2 behaves like a
// plain track, and an omitted angle list keeps every wheel plain.
const MecanumWheelSettingKey = "mecanumWheelSetting"

// mecanumSettings returns the rotation to apply to the rolling direction of
// each configured wheel link. An explicit 0 maps to pi/2 and an angle
// within 1e-5 of pi/2 maps to 0, so the plain track is the zero rotation.
func mecanumSettings(body *kin.Body, log *logrus.Entry) map[*kin.Link]float64 {
	raw, ok := body.Info(MecanumWheelSettingKey)
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		log.WithField("body", body.Name).Errorf("%s is not a mapping", MecanumWheelSettingKey)
		return nil
	}
	links, _ := m["links"].([]any)
	if len(links) == 0 {
		return nil
	}
	angles, _ := m["barrelAngles"].([]any)

	out := make(map[*kin.Link]float64)
	for i, v := range links {
		name := fmt.Sprint(v)
		entry := log.WithFields(logrus.Fields{"body": body.Name, "link": name})
		link := body.LinkByName(name)
		if link == nil {
			entry.Error("mecanum wheel link not found")
			continue
		}
		if link.JointType != kin.JointTracked {
			entry.Error("mecanum wheel link is not a crawler joint")
			continue
		}
		angle := 0.0
		if i < len(angles) {
			a, ok := toFloat(angles[i])
			if !ok {
				entry.Errorf("barrel angle %v is not a number", angles[i])
				continue
			}
			switch {
			case a == 0:
				angle = math.Pi / 2
			case math.Abs(math.Pi/2-a) < 1e-5:
				angle = 0
			default:
				angle = a
			}
		}
		out[link] = angle
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
