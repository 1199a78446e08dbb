package command

import "smartbuyer-go/domain/settings"

// TestRecognition captures the countdown region once and reports what was read.
type TestRecognition struct {
	// SaveDebugImage writes the preprocessed frame next to the log file.
	SaveDebugImage bool
}

func (c *TestRecognition) CommandName() string {
	return "TestRecognition"
}

// TestClick performs the configured click sequence outside a run.
type TestClick struct {
	// DryRun resolves and validates the targets without moving the pointer.
	DryRun bool
}

func (c *TestClick) CommandName() string {
	return "TestClick"
}

// ApplySettings replaces the active settings and optionally persists them.
type ApplySettings struct {
	Settings settings.Settings
	Save     bool
}

func NewApplySettings(s settings.Settings, save bool) *ApplySettings {
	return &ApplySettings{Settings: s, Save: save}
}

func (c *ApplySettings) CommandName() string {
	return "ApplySettings"
}
