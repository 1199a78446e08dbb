package event

import "time"

// RecognitionTested is published after a one-off recognition probe.
type RecognitionTested struct {
	Text       string
	Recognized bool
	Seconds    int
	Format     string
	Elapsed    time.Duration
	ImagePath  string // debug frame, if saved
	Error      error
}

func (e *RecognitionTested) EventName() string {
	return "RecognitionTested"
}

// ClickTested is published after a click position test.
type ClickTested struct {
	Targets []string
	DryRun  bool
	Error   error
}

func (e *ClickTested) EventName() string {
	return "ClickTested"
}

// SettingsApplied is published when a new configuration takes effect.
type SettingsApplied struct {
	Path  string
	Saved bool
}

func (e *SettingsApplied) EventName() string {
	return "SettingsApplied"
}

// OperationFailed is published when a user-triggered operation fails
// outside a run.
type OperationFailed struct {
	Operation string
	Error     error
}

func NewOperationFailed(op string, err error) *OperationFailed {
	return &OperationFailed{Operation: op, Error: err}
}

func (e *OperationFailed) EventName() string {
	return "OperationFailed"
}
