// Package console runs a monitoring session without the graphical panel.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"smartbuyer-go/application/monitor"
	"smartbuyer-go/core/apperr"
	"smartbuyer-go/core/event"
	"smartbuyer-go/core/eventbus"
	"smartbuyer-go/core/state"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/presentation/status"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// inputCloseWait bounds how long a cancelled confirmation waits for the
// input reader to return.
const inputCloseWait = 100 * time.Millisecond

// Controller is the part of the coordinator the console drives.
type Controller interface {
	Prepare() error
	StartMonitoring(ctx context.Context) (string, error)
	StopMonitoring()
	Engine() *monitor.Engine
	Settings() settings.Settings
}

// RunnerConfig holds configuration for the Runner.
type RunnerConfig struct {
	Controller Controller
	EventBus   eventbus.EventBus
	Out        io.Writer
	In         io.Reader
	// Timeout stops the run after this long. Zero disables it.
	Timeout time.Duration
	// Confirm waits for Enter before starting.
	Confirm bool
	Logger  *slog.Logger
}

// Runner prints progress for a single headless run.
type Runner struct {
	ctrl    Controller
	bus     eventbus.EventBus
	out     io.Writer
	in      io.Reader
	timeout time.Duration
	confirm bool
	logger  *slog.Logger

	mu    sync.Mutex
	runID string
}

// NewRunner creates a console runner.
func NewRunner(cfg *RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Runner{
		ctrl:    cfg.Controller,
		bus:     cfg.EventBus,
		out:     cfg.Out,
		in:      cfg.In,
		timeout: cfg.Timeout,
		confirm: cfg.Confirm && cfg.In != nil,
		logger:  cfg.Logger,
	}
}

// Run performs one monitoring run and returns the process exit code.
// Cancelling ctx stops the run normally.
func (r *Runner) Run(ctx context.Context) int {
	if err := r.ctrl.Prepare(); err != nil {
		r.printf("Error: %v\n", err)
		return ExitCodeForError(err)
	}

	r.printBanner(r.ctrl.Settings())

	if r.confirm {
		if !r.waitForEnter(ctx) {
			r.printf("Cancelled.\n")
			return ExitOK
		}
	}

	if r.bus != nil {
		id := r.bus.Subscribe(r.handleEvent)
		defer r.bus.Unsubscribe(id)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	runID, err := r.ctrl.StartMonitoring(runCtx)
	if err != nil {
		r.printf("Error: %v\n", err)
		return ExitCodeForError(err)
	}
	r.mu.Lock()
	r.runID = runID
	r.mu.Unlock()

	engine := r.ctrl.Engine()
	<-engine.Done()

	last := engine.Last()
	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		r.printf("Timeout after %s.\n", r.timeout)
	}
	r.printf("%s\n", status.Summary(last, reasonFor(last, r.ctrl.Settings().MaxRetries), time.Now()))
	return ExitCode(last)
}

// ExitCode maps a terminal snapshot to a process exit code.
func ExitCode(s state.Snapshot) int {
	if s.State.Succeeded() {
		return ExitOK
	}
	return ExitFailure
}

// ExitCodeForError maps a setup error to a process exit code.
func ExitCodeForError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindConfiguration, apperr.KindOCR:
		return ExitConfig
	default:
		return ExitFailure
	}
}

func reasonFor(s state.Snapshot, maxRetries int) event.StopReason {
	if s.State == state.StateAborted && s.RetryCount > maxRetries {
		return event.StopReasonRetriesExhausted
	}
	return event.ReasonFor(s.State)
}

func (r *Runner) handleEvent(e event.Event) {
	re, ok := e.(event.RunEvent)
	if !ok {
		return
	}
	r.mu.Lock()
	runID := r.runID
	r.mu.Unlock()
	if runID != "" && re.RunID() != runID {
		return
	}

	switch evt := e.(type) {
	case *event.MonitorStarted:
		r.printf("Monitoring started at %s. Press Ctrl+C to stop.\n", evt.StartTime.Format("15:04:05"))
	case *event.StatusUpdated:
		r.printf("[%s] %s\n", time.Now().Format("15:04:05.000"), status.Line(evt.Snapshot, r.ctrl.Settings().MaxRetries))
	}
}

func (r *Runner) printBanner(s settings.Settings) {
	region := s.Region()
	r.printf("Countdown region: (%d, %d) %dx%d\n", region.X, region.Y, region.Width, region.Height)
	for _, t := range s.ClickTargets() {
		r.printf("Click %-8s (%d, %d)\n", t.Name, t.Point.X, t.Point.Y)
	}
	r.printf("Interval %s, click delay %s, max retries %d\n",
		s.CheckIntervalDuration(), s.ClickDelayDuration(), s.MaxRetries)
	r.printf("Formats: %s\n", strings.Join(s.CountdownFormats, "  "))
}

func (r *Runner) waitForEnter(ctx context.Context) bool {
	r.printf("Press Enter to start monitoring (Ctrl+C to cancel)...")

	line := make(chan struct{})
	go func() {
		bufio.NewReader(r.in).ReadString('\n')
		close(line)
	}()

	select {
	case <-line:
		return true
	case <-ctx.Done():
		r.printf("\n")
		// Closing the input unblocks the pending read. A terminal stdin
		// may ignore the close, so the wait is bounded.
		if c, ok := r.in.(io.Closer); ok {
			c.Close()
			select {
			case <-line:
			case <-time.After(inputCloseWait):
				r.logger.Debug("Input reader still blocked after close")
			}
		}
		return false
	}
}

func (r *Runner) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}
