package config

import "errors"

var (
	ErrInvalidValue = errors.New("config: invalid value")

	ErrUnknownPreset = errors.New("config: unknown preset")

	ErrUnknownStepMode = errors.New("config: unknown step mode")
)
