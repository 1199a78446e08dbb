// Package application wires configuration, recognition and input into a
// monitoring engine and routes user commands to it.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartbuyer-go/application/monitor"
	"smartbuyer-go/core/apperr"
	"smartbuyer-go/core/command"
	"smartbuyer-go/core/event"
	"smartbuyer-go/core/eventbus"
	"smartbuyer-go/core/state"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/input"
	"smartbuyer-go/infrastructure/notify"
	"smartbuyer-go/infrastructure/ocr"
	"smartbuyer-go/infrastructure/screen"
)

// OCRFactory creates the recognition engine for a settings snapshot.
type OCRFactory func(s settings.Settings) (ocr.Engine, error)

// Persister stores settings.
type Persister interface {
	Save(s settings.Settings) error
	Path() string
}

// Coordinator owns the monitoring engine and handles commands from the
// presentation layer.
type Coordinator struct {
	mu       sync.Mutex
	settings settings.Settings
	engine   *monitor.Engine
	reader   *monitor.Reader

	// Dependencies
	eventBus   eventbus.EventBus
	presets    *countdown.Presets
	capturer   screen.Capturer
	clicker    input.Clicker
	ocrFactory OCRFactory
	persister  Persister
	notifier   notify.Notifier
	saver      *screen.Saver
	logger     *slog.Logger

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	Settings   settings.Settings
	EventBus   eventbus.EventBus
	Presets    *countdown.Presets
	Capturer   screen.Capturer
	Clicker    input.Clicker
	OCRFactory OCRFactory
	Persister  Persister
	Notifier   notify.Notifier
	Saver      *screen.Saver
	Logger     *slog.Logger
}

// NewCoordinator creates a coordinator. The engine is built lazily by
// Prepare or the first StartMonitoring.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Presets == nil {
		cfg.Presets = countdown.NewPresets()
	}
	if cfg.Capturer == nil {
		cfg.Capturer = screen.NewDesktopCapturer()
	}
	if cfg.Clicker == nil {
		cfg.Clicker = input.NewDesktopClicker()
	}
	if cfg.OCRFactory == nil {
		cfg.OCRFactory = NewTesseractEngine
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Silent{}
	}
	if cfg.Saver == nil {
		cfg.Saver = screen.NewSaver("", cfg.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		settings:   cfg.Settings.Clone(),
		eventBus:   cfg.EventBus,
		presets:    cfg.Presets,
		capturer:   cfg.Capturer,
		clicker:    cfg.Clicker,
		ocrFactory: cfg.OCRFactory,
		persister:  cfg.Persister,
		notifier:   cfg.Notifier,
		saver:      cfg.Saver,
		logger:     cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the coordinator.
func (c *Coordinator) Start() {
	c.logger.Info("Coordinator started")
}

// Stop stops any active run and shuts the coordinator down.
func (c *Coordinator) Stop() {
	c.StopMonitoring()
	c.cancel()
	c.logger.Info("Coordinator stopped")
}

// Prepare validates the settings and builds the engine. Configuration
// and OCR setup errors surface here.
func (c *Coordinator) Prepare() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepareLocked()
}

func (c *Coordinator) prepareLocked() error {
	if c.engine != nil {
		return nil
	}

	s := c.settings
	if err := s.Validate(); err != nil {
		return err
	}
	if err := s.CheckBounds(c.capturer.Bounds()); err != nil {
		return err
	}

	patterns, err := c.presets.Expand(s.CountdownFormats)
	if err != nil {
		return apperr.Configuration("countdown_formats", "%v", err)
	}
	parser, err := countdown.NewParser(patterns)
	if err != nil {
		return &apperr.Error{Kind: apperr.KindConfiguration, Field: "countdown_formats", Message: "invalid format", Cause: err}
	}

	engine, err := c.ocrFactory(s)
	if err != nil {
		if apperr.KindOf(err) == 0 {
			err = apperr.OCR("init", err, "recognition engine unavailable")
		}
		return err
	}

	reader, err := monitor.NewReader(&monitor.ReaderConfig{
		Capturer:      c.capturer,
		Engine:        engine,
		Parser:        parser,
		Region:        s.Region(),
		Preprocess:    PreprocessOptions(s),
		SkipUnchanged: s.SkipUnchangedFrames,
		Logger:        c.logger.With("component", "reader"),
	})
	if err != nil {
		return err
	}

	eng, err := monitor.NewEngine(&monitor.EngineConfig{
		Reader:        reader,
		Executor:      monitor.NewExecutor(c.clicker, c.capturer.Bounds(), c.logger.With("component", "executor")),
		Policy:        Policy(s),
		Targets:       s.ClickTargets(),
		ClickDelay:    s.ClickDelayDuration(),
		CheckInterval: s.CheckIntervalDuration(),
		MaxRetries:    s.MaxRetries,
		Listener:      monitor.StatusFunc(c.onStatus),
		Logger:        c.logger.With("component", "engine"),
	})
	if err != nil {
		return err
	}

	c.reader = reader
	c.engine = eng
	c.logger.Info("Engine ready",
		"ocr", engine.Name(),
		"region", s.Region().Rect(),
		"formats", len(patterns),
		"confirm", s.EnableConfirmClick,
	)
	return nil
}

// Dispatch sends a command to the appropriate handler.
func (c *Coordinator) Dispatch(cmd command.Command) error {
	c.logger.Debug("Dispatching command", "command", cmd.CommandName())

	switch cmd := cmd.(type) {
	case *command.StartMonitoring:
		_, err := c.StartMonitoring(c.ctx)
		return err
	case *command.StopMonitoring:
		c.StopMonitoring()
		return nil
	case *command.TestRecognition:
		_, err := c.ProbeRecognition(c.ctx, cmd.SaveDebugImage)
		return err
	case *command.TestClick:
		return c.TestClicks(c.ctx, cmd.DryRun)
	case *command.ApplySettings:
		return c.Reconfigure(cmd.Settings, cmd.Save)
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
}

// StartMonitoring starts a run and returns its ID.
func (c *Coordinator) StartMonitoring(ctx context.Context) (string, error) {
	c.mu.Lock()
	if err := c.prepareLocked(); err != nil {
		c.mu.Unlock()
		c.publish(event.NewOperationFailed("start", err))
		return "", err
	}
	engine := c.engine
	c.mu.Unlock()

	runID, err := engine.Start(ctx)
	if err != nil {
		c.publish(event.NewOperationFailed("start", err))
		return "", err
	}
	return runID, nil
}

// StopMonitoring stops the active run. It is a no-op when idle.
func (c *Coordinator) StopMonitoring() {
	if engine := c.Engine(); engine != nil {
		engine.Stop()
	}
}

// IsRunning reports whether a run is active.
func (c *Coordinator) IsRunning() bool {
	engine := c.Engine()
	return engine != nil && engine.IsRunning()
}

// Engine returns the prepared engine, or nil.
func (c *Coordinator) Engine() *monitor.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// Settings returns a copy of the active settings.
func (c *Coordinator) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// Presets returns the format preset registry.
func (c *Coordinator) Presets() *countdown.Presets {
	return c.presets
}

// Reconfigure replaces the settings. It is rejected while a run is
// active; the engine is rebuilt on the next start.
func (c *Coordinator) Reconfigure(s settings.Settings, save bool) error {
	if err := s.Validate(); err != nil {
		c.publish(event.NewOperationFailed("apply settings", err))
		return err
	}

	c.mu.Lock()
	if c.engine != nil && c.engine.IsRunning() {
		c.mu.Unlock()
		err := apperr.Automation("reconfigure", nil, "cannot change settings while monitoring")
		c.publish(event.NewOperationFailed("apply settings", err))
		return err
	}
	c.settings = s.Clone()
	c.engine = nil
	c.reader = nil
	c.mu.Unlock()

	applied := &event.SettingsApplied{}
	if save && c.persister != nil {
		if err := c.persister.Save(s); err != nil {
			c.publish(event.NewOperationFailed("save settings", err))
			return err
		}
		applied.Path = c.persister.Path()
		applied.Saved = true
	}

	c.logger.Info("Settings applied", "saved", applied.Saved, "path", applied.Path)
	c.publish(applied)
	return nil
}

// ProbeRecognition reads the countdown region once.
func (c *Coordinator) ProbeRecognition(ctx context.Context, saveDebug bool) (*event.RecognitionTested, error) {
	c.mu.Lock()
	if err := c.prepareLocked(); err != nil {
		c.mu.Unlock()
		c.publish(&event.RecognitionTested{Error: err})
		return nil, err
	}
	reader := c.reader
	c.mu.Unlock()

	probe, err := reader.Probe(ctx)
	if err != nil {
		c.publish(&event.RecognitionTested{Error: err})
		return nil, err
	}

	result := &event.RecognitionTested{
		Text:       probe.Reading.Text,
		Recognized: probe.Reading.Recognized,
		Seconds:    probe.Reading.Seconds,
		Format:     probe.Reading.Format,
		Elapsed:    probe.Elapsed,
	}
	if saveDebug {
		if _, err := c.saver.Save("raw", probe.Raw); err != nil {
			c.logger.Warn("Failed to save raw frame", "error", err)
		}
		path, err := c.saver.Save("ocr", probe.Processed)
		if err != nil {
			c.logger.Warn("Failed to save processed frame", "error", err)
		} else {
			result.ImagePath = path
		}
	}

	c.logger.Info("Recognition test",
		"text", result.Text,
		"recognized", result.Recognized,
		"seconds", result.Seconds,
		"format", result.Format,
		"elapsed", result.Elapsed,
	)
	c.publish(result)
	return result, nil
}

// TestClicks performs the configured click sequence outside a run.
func (c *Coordinator) TestClicks(ctx context.Context, dryRun bool) error {
	c.mu.Lock()
	s := c.settings
	running := c.engine != nil && c.engine.IsRunning()
	c.mu.Unlock()

	targets := s.ClickTargets()
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = fmt.Sprintf("%s(%d,%d)", t.Name, t.Point.X, t.Point.Y)
	}
	result := &event.ClickTested{Targets: names, DryRun: dryRun}

	if running {
		result.Error = apperr.Automation("test click", nil, "cannot test clicks while monitoring")
		c.publish(result)
		return result.Error
	}

	var clicker input.Clicker = c.clicker
	if dryRun {
		clicker = input.NewDryRunClicker(c.logger)
	}
	exec := monitor.NewExecutor(clicker, c.capturer.Bounds(), c.logger.With("component", "executor"))
	result.Error = exec.Execute(ctx, targets, s.ClickDelayDuration())

	c.publish(result)
	return result.Error
}

// onStatus receives engine snapshots on the polling goroutine.
func (c *Coordinator) onStatus(s state.Snapshot) {
	// MonitorStarted goes out from the loop so it always precedes the
	// run's first status on the bus. A run stopped before its first read
	// has no cycles.
	if (s.Cycle == 1 && !s.State.IsTerminal()) || s.Cycle == 0 {
		c.publish(event.NewMonitorStarted(s.RunID, s.StartTime))
	}

	if !s.State.IsTerminal() {
		c.publish(event.NewStatusUpdated(s))
		return
	}

	finished := event.NewMonitorFinished(s)
	if s.State == state.StateAborted && s.RetryCount > c.Settings().MaxRetries {
		finished.Reason = event.StopReasonRetriesExhausted
	}

	switch s.State {
	case state.StateCompleted:
		c.notifier.Notify(notify.AlertCompleted)
	case state.StateAborted:
		c.notifier.Notify(notify.AlertAborted)
	}

	c.logger.Info("Run finished",
		"run_id", s.RunID,
		"reason", finished.Reason,
		"elapsed", s.Elapsed(time.Now()),
	)
	c.publish(finished)
}

func (c *Coordinator) publish(e event.Event) {
	if c.eventBus != nil {
		c.eventBus.Publish(e)
	}
}
