package control

import "github.com/san-kum/dynbridge/internal/kin"

// Controller writes the joint commands of body at time t.
type Controller interface {
	Compute(body *kin.Body, t float64)
	Reset()
}
