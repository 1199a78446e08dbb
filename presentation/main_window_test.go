package presentation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"smartbuyer-go/core/command"
	"smartbuyer-go/core/event"
)

func newTestWindow(t *testing.T, d *fakeDispatcher) *MainWindow {
	t.Helper()
	a := test.NewTempApp(t)
	b := NewUIEventBridge(&BridgeConfig{Coordinator: d})
	return NewMainWindow(&MainWindowConfig{
		App:     a,
		Bridge:  b,
		Presets: []string{"clock"},
	})
}

func waitForCommands(t *testing.T, d *fakeDispatcher, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if names := d.names(); len(names) >= n {
			return names
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d commands, got %v", n, d.names())
	return nil
}

func TestMainWindow_LoadsSettings(t *testing.T) {
	d := newFakeDispatcher()
	d.settings.MaxRetries = 9
	w := newTestWindow(t, d)

	s, err := w.form.Settings()
	if err != nil {
		t.Fatalf("form.Settings() error = %v", err)
	}
	if s.MaxRetries != 9 {
		t.Errorf("MaxRetries = %d, want 9", s.MaxRetries)
	}
	if w.maxRetries != 9 {
		t.Errorf("window maxRetries = %d, want 9", w.maxRetries)
	}
}

func TestMainWindow_StartupError(t *testing.T) {
	a := test.NewTempApp(t)
	w := NewMainWindow(&MainWindowConfig{
		App:          a,
		Bridge:       NewUIEventBridge(&BridgeConfig{Coordinator: newFakeDispatcher()}),
		StartupError: errors.New("tesseract not found"),
	})

	if !strings.Contains(w.statusLabel.Text, "tesseract not found") {
		t.Errorf("status = %q", w.statusLabel.Text)
	}
}

func TestMainWindow_SetRunning(t *testing.T) {
	w := newTestWindow(t, newFakeDispatcher())

	w.setRunning(true)
	if !w.startBtn.Disabled() || w.stopBtn.Disabled() || !w.saveBtn.Disabled() {
		t.Error("running: want start and save disabled, stop enabled")
	}

	w.setRunning(false)
	if w.startBtn.Disabled() || !w.stopBtn.Disabled() || w.saveBtn.Disabled() {
		t.Error("idle: want start and save enabled, stop disabled")
	}
}

func TestMainWindow_StartAppliesSettingsFirst(t *testing.T) {
	d := newFakeDispatcher()
	w := newTestWindow(t, d)

	w.handleStart()

	names := waitForCommands(t, d, 2)
	if names[0] != "ApplySettings" || names[1] != "StartMonitoring" {
		t.Errorf("commands = %v, want ApplySettings then StartMonitoring", names)
	}

	d.mu.Lock()
	apply := d.commands[0].(*command.ApplySettings)
	d.mu.Unlock()
	if apply.Save {
		t.Error("Start should not persist settings")
	}
}

func TestMainWindow_SavePersists(t *testing.T) {
	d := newFakeDispatcher()
	w := newTestWindow(t, d)

	w.handleSave()

	waitForCommands(t, d, 1)
	d.mu.Lock()
	apply := d.commands[0].(*command.ApplySettings)
	d.mu.Unlock()
	if !apply.Save {
		t.Error("Save should persist settings")
	}
}

func TestMainWindow_InvalidFormBlocksStart(t *testing.T) {
	d := newFakeDispatcher()
	w := newTestWindow(t, d)
	w.form.boxEntry.SetText("nope")

	w.handleStart()
	time.Sleep(20 * time.Millisecond)

	if names := d.names(); len(names) != 0 {
		t.Errorf("commands = %v, want none", names)
	}
	if w.startBtn.Disabled() {
		t.Error("start button left disabled after a form error")
	}
}

func TestMainWindow_ShowRecognition(t *testing.T) {
	w := newTestWindow(t, newFakeDispatcher())

	w.showRecognition(&event.RecognitionTested{
		Text:       "12",
		Recognized: true,
		Seconds:    12,
		Format:     `(\d+)`,
		ImagePath:  "ocr.png",
	})
	if !strings.Contains(w.statusLabel.Text, "12 seconds") || !strings.Contains(w.statusLabel.Text, "ocr.png") {
		t.Errorf("status = %q", w.statusLabel.Text)
	}

	w.showRecognition(&event.RecognitionTested{Error: errors.New("no tesseract")})
	if !strings.HasPrefix(w.statusLabel.Text, "OCR failed") {
		t.Errorf("status = %q", w.statusLabel.Text)
	}
}
