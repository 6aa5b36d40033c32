// Package bot holds the hierarchical task sequencer: a controller that owns
// the shared frame and activates one behavior unit at a time.
package bot

import "fmt"

// Runnable is anything with a cooperative running flag.
type Runnable interface {
	Start()
	Stop()
	Running() bool
}

// Stateful exposes a state machine's current state.
type Stateful[S comparable] interface {
	State() S
	SetState(S)
}

// UnitState is the local state of a behavior unit.
type UnitState int32

const (
	Idle UnitState = iota
	Start
	Done
)

func (s UnitState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Start:
		return "START"
	case Done:
		return "DONE"
	}
	return fmt.Sprintf("UnitState(%d)", int32(s))
}

// State is the controller's top level phase.
type State int

const (
	Init State = iota
	Mounting
	Navigating
	Gathering
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case Mounting:
		return "MOUNTING"
	case Navigating:
		return "NAVIGATING"
	case Gathering:
		return "GATHERING"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState reads a phase name as used in the config file.
func ParseState(s string) (State, error) {
	switch s {
	case "mounting", "MOUNTING":
		return Mounting, nil
	case "navigating", "NAVIGATING":
		return Navigating, nil
	case "gathering", "GATHERING":
		return Gathering, nil
	}
	return Init, fmt.Errorf("unknown phase %q", s)
}
