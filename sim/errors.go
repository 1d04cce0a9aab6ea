package sim

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by control calls made before a successful
// Initialize.
var ErrNotInitialized = errors.New("simulation is not initialized")

// ErrCompleted is returned when stepping past the end of the workload.
var ErrCompleted = errors.New("simulation is completed")

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// A ConfigurationError reports a rejected configuration. Nothing is changed
// when Initialize returns one.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// A TransitionError reports a control call that is not allowed in the
// current state. The state is left untouched.
type TransitionError struct {
	Op   string
	From State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.From)
}

// Is makes errors.Is(err, ErrInvalidTransition) hold.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
