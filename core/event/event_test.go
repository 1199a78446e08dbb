package event

import (
	"errors"
	"testing"
	"time"

	"smartbuyer-go/core/state"
)

func TestEvent_Names(t *testing.T) {
	snap := state.Snapshot{RunID: "r1", State: state.StateRunning}

	tests := []struct {
		event    Event
		expected string
	}{
		{NewMonitorStarted("r1", time.Now()), "MonitorStarted"},
		{NewStatusUpdated(snap), "StatusUpdated"},
		{NewMonitorFinished(snap), "MonitorFinished"},
		{&RecognitionTested{}, "RecognitionTested"},
		{&ClickTested{}, "ClickTested"},
		{&SettingsApplied{}, "SettingsApplied"},
		{NewOperationFailed("save", errors.New("test")), "OperationFailed"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.event.EventName(); got != tt.expected {
				t.Errorf("EventName() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRunEvent_RunID(t *testing.T) {
	snap := state.Snapshot{RunID: "run-456"}

	tests := []struct {
		name     string
		event    RunEvent
		expected string
	}{
		{"MonitorStarted", NewMonitorStarted("run-123", time.Now()), "run-123"},
		{"StatusUpdated", NewStatusUpdated(snap), "run-456"},
		{"MonitorFinished", NewMonitorFinished(snap), "run-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.RunID(); got != tt.expected {
				t.Errorf("RunID() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStopReason(t *testing.T) {
	tests := []struct {
		state  state.RunState
		reason StopReason
		name   string
	}{
		{state.StateCompleted, StopReasonCompleted, "Completed"},
		{state.StateStopped, StopReasonManual, "Manual"},
		{state.StateAborted, StopReasonError, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReasonFor(tt.state)
			if got != tt.reason {
				t.Errorf("ReasonFor(%v) = %v, want %v", tt.state, got, tt.reason)
			}
			if got.String() != tt.name {
				t.Errorf("String() = %v, want %v", got.String(), tt.name)
			}
		})
	}

	if StopReasonRetriesExhausted.String() != "RetriesExhausted" {
		t.Error("RetriesExhausted string mismatch")
	}
	if StopReason(42).String() != "Unknown" {
		t.Error("unknown reason should stringify as Unknown")
	}
}

func TestMonitorFinished_CarriesSnapshot(t *testing.T) {
	v := 0
	snap := state.Snapshot{RunID: "r", State: state.StateCompleted, CurrentCountdown: &v}
	e := NewMonitorFinished(snap)
	if e.Reason != StopReasonCompleted {
		t.Errorf("Reason = %v, want Completed", e.Reason)
	}
	if e.Snapshot.Countdown() != 0 {
		t.Errorf("Countdown() = %d, want 0", e.Snapshot.Countdown())
	}
}
