// Package state defines the monitoring run state machine.
package state

import "fmt"

// RunState represents the state of the automation engine.
type RunState int

const (
	// StateIdle means no monitoring run is in progress.
	StateIdle RunState = iota
	// StateRunning means the polling loop is active.
	StateRunning
	// StateCompleted means the trigger fired and the click sequence succeeded.
	StateCompleted
	// StateAborted means the run ended on an error or an exhausted retry budget.
	StateAborted
	// StateStopped means the run was stopped by the user.
	StateStopped
)

// String returns the string representation of the state.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateAborted:
		return "Aborted"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// validTransitions defines the allowed state transitions.
// Key is the current state, value is a list of valid target states.
var validTransitions = map[RunState][]RunState{
	StateIdle:      {StateRunning},
	StateRunning:   {StateCompleted, StateAborted, StateStopped},
	StateCompleted: {StateIdle},
	StateAborted:   {StateIdle},
	StateStopped:   {StateIdle},
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s RunState) CanTransitionTo(target RunState) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target states from the current state.
func (s RunState) ValidTransitions() []RunState {
	return validTransitions[s]
}

// IsTerminal returns true if the state ends a run.
func (s RunState) IsTerminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateStopped
}

// CanStart returns true if a new run may be started from this state.
// Terminal states pass through Idle implicitly.
func (s RunState) CanStart() bool {
	return s == StateIdle || s.IsTerminal()
}

// Succeeded returns true for runs that ended normally from the user's
// point of view.
func (s RunState) Succeeded() bool {
	return s == StateCompleted || s == StateStopped
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   RunState
	To     RunState
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid state transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to RunState, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
