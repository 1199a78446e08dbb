package presentation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"smartbuyer-go/core/event"
	"smartbuyer-go/core/state"
	"smartbuyer-go/presentation/status"
)

// MainWindow is the main application window.
type MainWindow struct {
	window    fyne.Window
	bridge    *UIEventBridge
	logger    *slog.Logger
	logBuffer *LogBuffer

	// UI components - Settings
	form *SettingsForm

	// UI components - Toolbar
	startBtn     *widget.Button
	stopBtn      *widget.Button
	testOCRBtn   *widget.Button
	testClickBtn *widget.Button
	saveBtn      *widget.Button
	debugImageCb *widget.Check
	dryRunCb     *widget.Check

	// UI components - Status
	statusLabel    *widget.Label
	countdownLabel *widget.Label
	retryLabel     *widget.Label
	logView        *widget.Entry

	maxRetries int

	// Cleanup
	cleanupOnce sync.Once
}

// MainWindowConfig holds configuration for MainWindow.
type MainWindowConfig struct {
	App       fyne.App
	Bridge    *UIEventBridge
	Logger    *slog.Logger
	Presets   []string
	LogBuffer *LogBuffer
	// StartupError is shown in the status area, e.g. a missing OCR engine.
	StartupError error
}

// NewMainWindow creates a new main window.
func NewMainWindow(cfg *MainWindowConfig) *MainWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &MainWindow{
		window:    cfg.App.NewWindow("SmartBuyer"),
		bridge:    cfg.Bridge,
		logger:    cfg.Logger,
		logBuffer: cfg.LogBuffer,
	}

	w.init(cfg.Presets)
	w.setupEventCallbacks()
	w.loadSettings()

	if cfg.StartupError != nil {
		w.statusLabel.SetText("Not ready: " + cfg.StartupError.Error())
	}

	w.window.SetOnClosed(func() {
		w.Cleanup()
		cfg.App.Quit()
	})

	return w
}

func (w *MainWindow) init(presets []string) {
	toolbar := w.createToolbar()

	w.form = NewSettingsForm(presets)
	settingsCard := widget.NewCard("Settings", "", w.form.Container())

	statusCard := widget.NewCard("Status", "", w.createStatusBox())

	w.logView = widget.NewMultiLineEntry()
	w.logView.Wrapping = fyne.TextWrapOff
	w.logView.Disable()
	logCard := widget.NewCard("Log", "", w.logView)

	right := container.NewBorder(statusCard, nil, nil, nil, logCard)

	// Left-right split layout
	split := container.NewHSplit(container.NewVScroll(settingsCard), right)
	split.SetOffset(0.45)

	content := container.NewBorder(toolbar, nil, nil, nil, split)
	w.window.SetContent(content)
	w.window.Resize(fyne.NewSize(1000, 680))

	if w.logBuffer != nil {
		w.logBuffer.SetOnChange(func() {
			fyne.Do(w.refreshLog)
		})
	}
}

func (w *MainWindow) createToolbar() fyne.CanvasObject {
	w.startBtn = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), w.handleStart)
	w.startBtn.Importance = widget.HighImportance
	w.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), w.handleStop)
	w.stopBtn.Disable()

	w.testOCRBtn = widget.NewButtonWithIcon("Test OCR", theme.SearchIcon(), w.handleTestOCR)
	w.debugImageCb = widget.NewCheck("Save Frame", func(bool) {})

	w.testClickBtn = widget.NewButtonWithIcon("Test Click", theme.MailSendIcon(), w.handleTestClick)
	w.dryRunCb = widget.NewCheck("Dry Run", func(bool) {})
	w.dryRunCb.SetChecked(true)

	w.saveBtn = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), w.handleSave)

	// [▶ Start] [■ Stop] | [Test OCR] [Save Frame] | [Test Click] [Dry Run] | spacer | [Save]
	return container.NewHBox(
		w.startBtn,
		w.stopBtn,
		widget.NewSeparator(),
		w.testOCRBtn,
		w.debugImageCb,
		widget.NewSeparator(),
		w.testClickBtn,
		w.dryRunCb,
		layout.NewSpacer(),
		w.saveBtn,
	)
}

func (w *MainWindow) createStatusBox() fyne.CanvasObject {
	w.statusLabel = widget.NewLabel("Idle")
	w.statusLabel.Wrapping = fyne.TextWrapWord

	w.countdownLabel = widget.NewLabel("--")
	w.countdownLabel.TextStyle = fyne.TextStyle{Bold: true}

	w.retryLabel = widget.NewLabel("")

	return container.NewVBox(
		container.NewHBox(widget.NewLabel("Countdown:"), w.countdownLabel, layout.NewSpacer(), w.retryLabel),
		w.statusLabel,
	)
}

func (w *MainWindow) setupEventCallbacks() {
	if w.bridge == nil {
		return
	}

	w.bridge.SetCallbacks(&UICallbacks{
		OnMonitorStarted: func(runID string) {
			w.logger.Debug("Run started", "run_id", runID)
			// UI update must run on main thread
			fyne.Do(func() {
				w.setRunning(true)
				w.statusLabel.SetText("Monitoring...")
			})
		},
		OnStatusUpdated: func(s state.Snapshot) {
			fyne.Do(func() {
				w.showSnapshot(s)
			})
		},
		OnMonitorFinished: func(s state.Snapshot, reason event.StopReason) {
			summary := status.Summary(s, reason, time.Now())
			fyne.Do(func() {
				w.showSnapshot(s)
				w.setRunning(false)
				w.statusLabel.SetText(summary)
				if s.State == state.StateAborted {
					dialog.ShowInformation("Monitoring Aborted", summary, w.window)
				}
			})
		},
		OnRecognitionTested: func(r *event.RecognitionTested) {
			fyne.Do(func() {
				w.showRecognition(r)
			})
		},
		OnClickTested: func(r *event.ClickTested) {
			fyne.Do(func() {
				if r.Error != nil {
					dialog.ShowError(r.Error, w.window)
					return
				}
				mode := "Clicked"
				if r.DryRun {
					mode = "Dry run"
				}
				w.statusLabel.SetText(fmt.Sprintf("%s: %s", mode, strings.Join(r.Targets, " -> ")))
			})
		},
		OnSettingsApplied: func(path string, saved bool) {
			if !saved {
				return
			}
			fyne.Do(func() {
				w.statusLabel.SetText("Settings saved to " + path)
			})
		},
		OnOperationFailed: func(operation string, err error) {
			w.logger.Warn("Operation failed", "operation", operation, "error", err)
			fyne.Do(func() {
				w.setRunning(w.bridge.IsRunning())
				dialog.ShowError(err, w.window)
			})
		},
	})
}

func (w *MainWindow) loadSettings() {
	if w.bridge == nil {
		return
	}
	s := w.bridge.Settings()
	w.maxRetries = s.MaxRetries
	w.form.SetSettings(s)
}

// applyForm pushes the form contents to the coordinator off the UI thread
// and runs next on success. It reports false if the form is invalid.
func (w *MainWindow) applyForm(save bool, next func() error) bool {
	s, err := w.form.Settings()
	if err != nil {
		dialog.ShowError(err, w.window)
		return false
	}
	w.maxRetries = s.MaxRetries

	go func() {
		if err := w.bridge.ApplySettings(s, save); err != nil {
			return // reported through OnOperationFailed
		}
		if next == nil {
			return
		}
		if err := next(); err != nil {
			w.logger.Debug("Command failed", "error", err)
		}
	}()
	return true
}

func (w *MainWindow) handleStart() {
	if w.bridge.IsRunning() {
		return
	}
	w.startBtn.Disable()
	ok := w.applyForm(false, func() error {
		err := w.bridge.StartMonitoring()
		if err != nil {
			fyne.Do(func() { w.setRunning(false) })
		}
		return err
	})
	if !ok {
		w.startBtn.Enable()
	}
}

func (w *MainWindow) handleStop() {
	w.stopBtn.Disable()
	go w.bridge.StopMonitoring()
}

func (w *MainWindow) handleTestOCR() {
	save := w.debugImageCb.Checked
	if w.bridge.IsRunning() {
		// settings are locked during a run
		w.statusLabel.SetText("Reading countdown...")
		go w.bridge.TestRecognition(save)
		return
	}
	if w.applyForm(false, func() error {
		return w.bridge.TestRecognition(save)
	}) {
		w.statusLabel.SetText("Reading countdown...")
	}
}

func (w *MainWindow) handleTestClick() {
	dryRun := w.dryRunCb.Checked
	run := func() {
		_ = w.applyForm(false, func() error {
			return w.bridge.TestClick(dryRun)
		})
	}
	if dryRun {
		run()
		return
	}
	dialog.ShowConfirm("Test Click",
		"Real mouse clicks will be sent to the configured buttons. Continue?",
		func(ok bool) {
			if ok {
				run()
			}
		}, w.window)
}

func (w *MainWindow) handleSave() {
	_ = w.applyForm(true, nil)
}

func (w *MainWindow) setRunning(running bool) {
	if running {
		w.startBtn.Disable()
		w.stopBtn.Enable()
		w.saveBtn.Disable()
		w.testClickBtn.Disable()
	} else {
		w.startBtn.Enable()
		w.stopBtn.Disable()
		w.saveBtn.Enable()
		w.testClickBtn.Enable()
	}
}

func (w *MainWindow) showSnapshot(s state.Snapshot) {
	w.countdownLabel.SetText(status.Countdown(s))
	if s.RetryCount > 0 {
		w.retryLabel.SetText(fmt.Sprintf("Misses: %d/%d", s.RetryCount, w.maxRetries))
	} else {
		w.retryLabel.SetText("")
	}
	if s.Running {
		w.statusLabel.SetText(status.Line(s, w.maxRetries))
	}
}

func (w *MainWindow) showRecognition(r *event.RecognitionTested) {
	if r.Error != nil {
		w.statusLabel.SetText("OCR failed: " + r.Error.Error())
		return
	}

	var msg string
	if r.Recognized {
		msg = fmt.Sprintf("Read %q as %d seconds via %s (%s)", r.Text, r.Seconds, r.Format, r.Elapsed.Round(time.Millisecond))
	} else {
		msg = fmt.Sprintf("Not recognized: %q (%s)", r.Text, r.Elapsed.Round(time.Millisecond))
	}
	if r.ImagePath != "" {
		msg += "\nFrame saved to " + r.ImagePath
	}
	w.statusLabel.SetText(msg)
}

func (w *MainWindow) refreshLog() {
	if w.logBuffer == nil {
		return
	}
	w.logView.SetText(w.logBuffer.Text())
	w.logView.CursorRow = len(w.logBuffer.Lines())
	w.logView.Refresh()
}

// Show displays the window.
func (w *MainWindow) Show() {
	w.window.Show()
}

// Stop ends any active run, e.g. from the global hotkey.
func (w *MainWindow) Stop() {
	if w.bridge != nil && w.bridge.IsRunning() {
		w.bridge.StopMonitoring()
	}
}

// Cleanup releases resources. Safe to call more than once.
func (w *MainWindow) Cleanup() {
	w.cleanupOnce.Do(func() {
		if w.logBuffer != nil {
			w.logBuffer.SetOnChange(nil)
		}
		w.Stop()
	})
}
