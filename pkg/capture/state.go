package capture

import (
	"fmt"
)

type State int

const (
	StateIdle = State(iota)
	StateAcquiring
	StateRecording
	StateStopping
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}

// IsTerminal reports whether the session will never change its state again.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}
