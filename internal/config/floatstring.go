package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FloatString is a number that keeps the text it was written with, so
// values such as "1.0e-10" survive a save/load cycle unchanged.
type FloatString struct {
	text  string
	value float64
}

func ParseFloatString(s string) (FloatString, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return FloatString{}, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return FloatString{text: s, value: v}, nil
}

func MustFloatString(s string) FloatString {
	f, err := ParseFloatString(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f FloatString) Value() float64 { return f.value }

func (f FloatString) String() string {
	if f.text == "" {
		return strconv.FormatFloat(f.value, 'g', -1, 64)
	}
	return f.text
}

// SetNonNegative replaces the value with s when s parses to a number >= 0.
func (f *FloatString) SetNonNegative(s string) error {
	v, err := ParseFloatString(s)
	if err != nil {
		return err
	}
	if v.value < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, s)
	}
	*f = v
	return nil
}

func (f FloatString) MarshalYAML() (any, error) {
	return f.String(), nil
}

func (f *FloatString) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseFloatString(n.Value)
	if err != nil {
		return err
	}
	*f = v
	return nil
}
