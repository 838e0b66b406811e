package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/kin"
)

type DoublePendulum struct {
	M1, M2 float64
	L1, L2 float64
	// Theta1 and Theta2 are the initial joint angles; Theta2 is relative
	// to the first arm.
	Theta1, Theta2 float64
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		M1: DefaultMass, M2: DefaultMass,
		L1: DefaultLength, L2: DefaultLength,
	}
}

func (d *DoublePendulum) Body() *kin.Body {
	base := fixedBase()
	upper := armLink("UPPER", 0, mgl64.Vec3{}, d.M1, d.L1)
	upper.Q = d.Theta1
	lower := armLink("LOWER", 1, mgl64.Vec3{0, 0, -d.L1}, d.M2, d.L2)
	lower.Q = d.Theta2
	upper.AppendChild(lower)
	base.AppendChild(upper)
	return newBody("double_pendulum", base)
}
