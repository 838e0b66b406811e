package control

import "github.com/san-kum/dynbridge/internal/kin"

type None struct{}

func NewNone() *None { return &None{} }

func (n *None) Compute(body *kin.Body, t float64) {}

func (n *None) Reset() {}
