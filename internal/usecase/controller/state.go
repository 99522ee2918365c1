package controller

// State is the lifecycle of the controller's single browser session.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// canTransition lists the edges of the session state machine. Crashed only
// leaves through Starting; explicit stop is allowed from any state.
func canTransition(from, to State) bool {
	if to == StateStopped {
		return true
	}
	switch from {
	case StateStopped, StateCrashed:
		return to == StateStarting
	case StateStarting:
		return to == StateRunning
	case StateRunning:
		return to == StateCrashed
	}
	return false
}
