package experiment

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownScenario = errors.New("experiment: unknown scenario")

	ErrUnknownParam = errors.New("experiment: unknown parameter")

	ErrInvalidState = errors.New("experiment: invalid state (NaN/Inf)")

	ErrInitialize = errors.New("experiment: world initialization failed")

	ErrNotSetup = errors.New("experiment: scenario not set up")
)

// StepError reports the step at which a run failed.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// IsDivergence reports whether err stopped a run on a non-finite state.
func IsDivergence(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
