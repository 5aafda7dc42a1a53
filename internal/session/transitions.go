// Package session holds the per-client search state.
//
// Valid state graph:
//
//	idle ──► searching ──► ready
//	             ▲   │
//	             │   └───► ready-empty
//	             │
//	any state ───┘  (a new search discards the previous result set)
//
// There is no error state: a run where every source failed ends in
// ready-empty, and the SourceReport tells the two apart.
package session

import "fmt"

type State string

const (
	StateIdle       State = "idle"
	StateSearching  State = "searching"
	StateReady      State = "ready"
	StateReadyEmpty State = "ready-empty"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[State][]State{
	StateIdle:       {StateSearching},
	StateSearching:  {StateSearching, StateReady, StateReadyEmpty},
	StateReady:      {StateSearching},
	StateReadyEmpty: {StateSearching},
}

// ParseState converts a raw string to a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if _, ok := validTransitions[st]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown session state %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// settled returns the state a finished run lands in.
func settled(records int) State {
	if records == 0 {
		return StateReadyEmpty
	}
	return StateReady
}
