// Package main is the entry point for SmartBuyer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/pflag"

	"smartbuyer-go/application"
	"smartbuyer-go/core/eventbus"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/configstore"
	"smartbuyer-go/infrastructure/hotkey"
	"smartbuyer-go/infrastructure/input"
	"smartbuyer-go/infrastructure/logging"
	"smartbuyer-go/infrastructure/notify"
	"smartbuyer-go/infrastructure/screen"
	"smartbuyer-go/presentation"
	"smartbuyer-go/presentation/console"
	"smartbuyer-go/resources"
)

type options struct {
	console        bool
	configPath     string
	timeout        time.Duration
	noConfirm      bool
	testOCR        bool
	debugImageDir  string
	testClick      bool
	validateConfig bool
	listConfig     bool
	get            string
	set            []string
	image          string
	verbose        bool
	quiet          bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("smartbuyer", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.BoolVar(&opts.console, "console", false, "run headless in the terminal instead of the GUI")
	fs.StringVarP(&opts.configPath, "config", "c", "config.json", "configuration file")
	fs.DurationVar(&opts.timeout, "timeout", 0, "stop console monitoring after this long (0 = never)")
	fs.BoolVar(&opts.noConfirm, "no-confirm", false, "skip the confirm click for this run")
	fs.BoolVar(&opts.testOCR, "test-ocr", false, "read the countdown once and exit")
	fs.StringVar(&opts.debugImageDir, "save-debug-image", "", "with --test-ocr, write the captured and processed frames to this directory")
	fs.BoolVar(&opts.testClick, "test-click", false, "dry-run the click sequence and exit")
	fs.BoolVar(&opts.validateConfig, "validate-config", false, "validate the configuration and exit")
	fs.BoolVar(&opts.listConfig, "list-config", false, "print every configuration key and exit")
	fs.StringVar(&opts.get, "get", "", "print one configuration value and exit")
	fs.StringArrayVar(&opts.set, "set", nil, "set KEY=VALUE in the configuration file (repeatable)")
	fs.StringVar(&opts.image, "image", "", "read frames from an image file instead of the screen")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "warnings and errors only")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.verbose && opts.quiet {
		return nil, errors.New("--verbose and --quiet are mutually exclusive")
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return console.ExitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return console.ExitConfig
	}

	store, err := configstore.Open(opts.configPath, nil)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to open configuration:", err)
		return console.ExitConfig
	}

	if opts.listConfig || opts.get != "" || len(opts.set) > 0 {
		return runConfigCommand(store, opts, stdout, stderr)
	}

	s, err := store.Settings()
	if err != nil {
		fmt.Fprintln(stderr, "Invalid configuration:", err)
		return console.ExitConfig
	}
	if opts.validateConfig {
		fmt.Fprintf(stdout, "Configuration %s is valid\n", store.Path())
		return console.ExitOK
	}
	if opts.noConfirm {
		s.EnableConfirmClick = false
	}

	gui := !opts.console && !opts.testOCR && !opts.testClick

	var logBuffer *presentation.LogBuffer
	logCfg := logging.DefaultConfig()
	logCfg.Level, _ = logging.ParseLevel(s.LogLevel)
	logCfg.File = s.LogFile
	switch {
	case opts.verbose:
		logCfg.Level = slog.LevelDebug
	case opts.quiet:
		logCfg.Level = slog.LevelWarn
	}
	if gui {
		logBuffer = presentation.NewLogBuffer(0)
		logCfg.Mirror = logBuffer
	}

	// Initialize logging (dev: console only, prod: rotating file)
	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to initialize logging:", err)
		return console.ExitFailure
	}
	defer closeLog()

	logger.Info("Starting SmartBuyer", "config", store.Path(), "config_exists", store.Exists())

	presets, err := countdown.LoadPresets(resources.FormatFiles)
	if err != nil {
		logger.Error("Failed to load format presets", "error", err)
		return console.ExitFailure
	}

	capturer, err := newCapturer(opts.image)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to load image:", err)
		return console.ExitConfig
	}

	clicker, closeClicker, err := newClicker(s, logger)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to open input device:", err)
		return console.ExitConfig
	}
	defer closeClicker()

	var notifier notify.Notifier = notify.Silent{}
	if s.SoundAlerts {
		sound := notify.NewSoundNotifier(logger.With("component", "notify"))
		defer sound.Close()
		notifier = sound
	}

	// Initialize event bus
	eventBus := eventbus.NewWithLogger(100, logger.With("component", "eventbus"))
	defer eventBus.Close()

	// Initialize coordinator
	coordinator := application.NewCoordinator(&application.CoordinatorConfig{
		Settings:  s,
		EventBus:  eventBus,
		Presets:   presets,
		Capturer:  capturer,
		Clicker:   clicker,
		Persister: store,
		Notifier:  notifier,
		Saver:     screen.NewSaver(opts.debugImageDir, logger),
		Logger:    logger.With("component", "coordinator"),
	})
	coordinator.Start()
	defer coordinator.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.testOCR:
		return runTestOCR(ctx, coordinator, opts.debugImageDir != "", stdout, stderr)
	case opts.testClick:
		return runTestClick(ctx, coordinator, stdout, stderr)
	case opts.console:
		watchHotkey(ctx, s, coordinator.StopMonitoring, logger)
		runner := console.NewRunner(&console.RunnerConfig{
			Controller: coordinator,
			EventBus:   eventBus,
			Out:        stdout,
			In:         os.Stdin,
			Timeout:    opts.timeout,
			Confirm:    true,
			Logger:     logger.With("component", "console"),
		})
		return runner.Run(ctx)
	}

	return runGUI(ctx, coordinator, eventBus, presets, logBuffer, s, logger)
}

func runGUI(ctx context.Context, coordinator *application.Coordinator, eventBus eventbus.EventBus,
	presets *countdown.Presets, logBuffer *presentation.LogBuffer, s settings.Settings, logger *slog.Logger) int {
	// Initialize UI event bridge
	bridge := presentation.NewUIEventBridge(&presentation.BridgeConfig{
		Coordinator: coordinator,
		EventBus:    eventBus,
		Logger:      logger.With("component", "bridge"),
	})
	defer bridge.Close()

	// A setup problem is shown in the window; Start retries it.
	startupErr := coordinator.Prepare()
	if startupErr != nil {
		logger.Warn("Monitoring not ready", "error", startupErr)
	}

	// Initialize Fyne app
	fyneApp := app.New()

	mainWindow := presentation.NewMainWindow(&presentation.MainWindowConfig{
		App:          fyneApp,
		Bridge:       bridge,
		Logger:       logger.With("component", "ui"),
		Presets:      presets.List(),
		LogBuffer:    logBuffer,
		StartupError: startupErr,
	})
	defer mainWindow.Cleanup()

	watchHotkey(ctx, s, mainWindow.Stop, logger)
	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	// Show and run
	mainWindow.Show()
	fyneApp.Run()

	// Start shutdown timeout - force exit after 10 seconds if cleanup hangs
	go func() {
		time.Sleep(10 * time.Second)
		logger.Warn("Shutdown timeout, forcing exit")
		os.Exit(console.ExitOK)
	}()

	logger.Info("Application shutdown complete")
	return console.ExitOK
}

func runTestOCR(ctx context.Context, coordinator *application.Coordinator, saveDebug bool, stdout, stderr io.Writer) int {
	result, err := coordinator.ProbeRecognition(ctx, saveDebug)
	if err != nil {
		fmt.Fprintln(stderr, "Recognition failed:", err)
		return console.ExitCodeForError(err)
	}

	fmt.Fprintf(stdout, "Text:    %q\n", result.Text)
	if result.Recognized {
		fmt.Fprintf(stdout, "Reading: %d seconds (%s) via %s\n",
			result.Seconds, countdown.FormatRemaining(result.Seconds), result.Format)
	} else {
		fmt.Fprintln(stdout, "Reading: not recognized")
	}
	fmt.Fprintf(stdout, "Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
	if result.ImagePath != "" {
		fmt.Fprintf(stdout, "Frame:   %s\n", result.ImagePath)
	}
	return console.ExitOK
}

func runTestClick(ctx context.Context, coordinator *application.Coordinator, stdout, stderr io.Writer) int {
	s := coordinator.Settings()
	for i, t := range s.ClickTargets() {
		fmt.Fprintf(stdout, "%d. %s at (%d, %d)\n", i+1, t.Name, t.Point.X, t.Point.Y)
	}
	if err := coordinator.TestClicks(ctx, true); err != nil {
		fmt.Fprintln(stderr, "Click test failed:", err)
		return console.ExitCodeForError(err)
	}
	fmt.Fprintf(stdout, "Click sequence OK (delay %s)\n", s.ClickDelayDuration())
	return console.ExitOK
}

func newCapturer(imagePath string) (screen.Capturer, error) {
	if imagePath == "" {
		return screen.NewDesktopCapturer(), nil
	}
	return screen.LoadImageCapturer(imagePath)
}

func newClicker(s settings.Settings, logger *slog.Logger) (input.Clicker, func(), error) {
	if !s.UsesSerialInput() {
		return input.NewDesktopClicker(), func() {}, nil
	}

	cfg := input.DefaultSerialConfig(s.SerialPort)
	if s.SerialBaud > 0 {
		cfg.Baud = s.SerialBaud
	}
	cfg.Logger = logger.With("component", "serial")
	clicker, err := input.OpenSerialClicker(cfg)
	if err != nil {
		return nil, nil, err
	}
	return clicker, func() {
		if err := clicker.Close(); err != nil {
			logger.Warn("Failed to close serial port", "error", err)
		}
	}, nil
}

func watchHotkey(ctx context.Context, s settings.Settings, onStop func(), logger *slog.Logger) {
	if !s.StopHotkey {
		return
	}
	go func() {
		err := hotkey.Watch(ctx, onStop, logger.With("component", "hotkey"))
		switch {
		case errors.Is(err, hotkey.ErrUnsupported):
			logger.Debug("Stop hotkey unavailable on this platform")
		case err != nil && ctx.Err() == nil:
			logger.Warn("Stop hotkey stopped", "error", err)
		}
	}()
}
