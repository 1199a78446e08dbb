// Package event defines all events that can be published by the application.
// Events represent state changes and are consumed by the presentation layer.
package event

import (
	"time"

	"smartbuyer-go/core/state"
)

// Event is the base interface for all events.
// Events are published by the application layer and consumed by subscribers.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// RunEvent is an event that originates from a specific monitoring run.
type RunEvent interface {
	Event
	// RunID returns the source run ID
	RunID() string
}

// baseRunEvent provides common implementation for run events.
type baseRunEvent struct {
	runID string
}

func (e *baseRunEvent) RunID() string {
	return e.runID
}

// MonitorStarted is published when a monitoring run begins.
type MonitorStarted struct {
	baseRunEvent
	StartTime time.Time
}

func NewMonitorStarted(runID string, startTime time.Time) *MonitorStarted {
	return &MonitorStarted{
		baseRunEvent: baseRunEvent{runID: runID},
		StartTime:    startTime,
	}
}

func (e *MonitorStarted) EventName() string {
	return "MonitorStarted"
}

// StatusUpdated is published once per polling cycle.
type StatusUpdated struct {
	baseRunEvent
	Snapshot state.Snapshot
}

func NewStatusUpdated(s state.Snapshot) *StatusUpdated {
	return &StatusUpdated{
		baseRunEvent: baseRunEvent{runID: s.RunID},
		Snapshot:     s,
	}
}

func (e *StatusUpdated) EventName() string {
	return "StatusUpdated"
}

// MonitorFinished is published when a run reaches a terminal state.
type MonitorFinished struct {
	baseRunEvent
	Snapshot state.Snapshot
	Reason   StopReason
}

func NewMonitorFinished(s state.Snapshot) *MonitorFinished {
	return &MonitorFinished{
		baseRunEvent: baseRunEvent{runID: s.RunID},
		Snapshot:     s,
		Reason:       ReasonFor(s.State),
	}
}

func (e *MonitorFinished) EventName() string {
	return "MonitorFinished"
}

// StopReason indicates why a run ended.
type StopReason int

const (
	// StopReasonCompleted indicates the purchase clicks were dispatched.
	StopReasonCompleted StopReason = iota
	// StopReasonManual indicates the run was stopped by the user.
	StopReasonManual
	// StopReasonError indicates the run was aborted by an error.
	StopReasonError
	// StopReasonRetriesExhausted indicates too many consecutive unrecognized readings.
	StopReasonRetriesExhausted
)

func (r StopReason) String() string {
	switch r {
	case StopReasonCompleted:
		return "Completed"
	case StopReasonManual:
		return "Manual"
	case StopReasonError:
		return "Error"
	case StopReasonRetriesExhausted:
		return "RetriesExhausted"
	default:
		return "Unknown"
	}
}

// ReasonFor maps a terminal state to a stop reason. Aborted runs are
// reported as errors; the coordinator refines retry exhaustion.
func ReasonFor(s state.RunState) StopReason {
	switch s {
	case state.StateCompleted:
		return StopReasonCompleted
	case state.StateStopped:
		return StopReasonManual
	default:
		return StopReasonError
	}
}
