package runtime

import "github.com/wippyai/wasm-replay/errors"

// State is the lifecycle stage of a run. Transitions only move forward.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateLinkedEnv
	StateLinkedGo
	StateInstantiated
	StateRunning
	StateCompleted
	StateTrapped
	StateConfigError
)

var stateNames = [...]string{
	StateUnloaded:     "unloaded",
	StateLoaded:       "loaded",
	StateLinkedEnv:    "linked_env",
	StateLinkedGo:     "linked_go",
	StateInstantiated: "instantiated",
	StateRunning:      "running",
	StateCompleted:    "completed",
	StateTrapped:      "trapped",
	StateConfigError:  "config_error",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// StateOf maps an error to the terminal state it leads to. Traps end in
// StateTrapped; every other failure is a configuration error.
func StateOf(err error) State {
	if err == nil {
		return StateCompleted
	}
	if _, kind, ok := errors.KindOf(err); ok && kind == errors.KindTrap {
		return StateTrapped
	}
	return StateConfigError
}
