package sim

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a Controller.
type State int

// The controller states.
const (
	Uninitialized State = iota
	Initialized
	Running
	Paused
	Completed
)

var stateNames = map[State]string{
	Uninitialized: "uninitialized",
	Initialized:   "initialized",
	Running:       "running",
	Paused:        "paused",
	Completed:     "completed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for state, n := range stateNames {
		if n == name {
			*s = state
			return nil
		}
	}

	return fmt.Errorf("unknown state %q", text)
}

// A Transition is the item passed to HookPosStateChange hooks.
type Transition struct {
	From State `json:"from"`
	To   State `json:"to"`
}

// StopReason tells why a run loop returned.
type StopReason int

// The reasons a run loop stops.
const (
	// StopCompleted means the workload is exhausted.
	StopCompleted StopReason = iota

	// StopPaused means Pause was called.
	StopPaused

	// StopCancelled means Reset or Initialize replaced the run.
	StopCancelled

	// StopContextDone means the context passed to Run or Resume ended. The
	// controller is left Paused.
	StopContextDone

	// StopFailed means a step returned an error.
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case StopCompleted:
		return "completed"
	case StopPaused:
		return "paused"
	case StopCancelled:
		return "cancelled"
	case StopContextDone:
		return "context done"
	case StopFailed:
		return "failed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}
