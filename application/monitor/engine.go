package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/core/state"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
)

// StatusListener receives a snapshot once per polling cycle and once on
// the terminal transition. Snapshots never alias engine state.
type StatusListener interface {
	OnStatus(s state.Snapshot)
}

// StatusFunc adapts a function to StatusListener.
type StatusFunc func(s state.Snapshot)

func (f StatusFunc) OnStatus(s state.Snapshot) { f(s) }

// EngineConfig holds configuration for the Engine.
type EngineConfig struct {
	Reader        CountdownReader
	Executor      ClickExecutor
	Policy        countdown.Policy
	Targets       []settings.ClickTarget
	ClickDelay    time.Duration
	CheckInterval time.Duration
	MaxRetries    int
	Listener      StatusListener
	// StopTimeout bounds how long Stop waits for the loop to exit.
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// Engine owns the monitoring loop. Only one run may be active at a time.
type Engine struct {
	reader        CountdownReader
	executor      ClickExecutor
	policy        countdown.Policy
	targets       []settings.ClickTarget
	clickDelay    time.Duration
	checkInterval time.Duration
	maxRetries    int
	listener      StatusListener
	stopTimeout   time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	state  state.RunState
	last   state.Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates an idle engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reader == nil {
		return nil, apperr.Configuration("countdown_box", "no countdown reader")
	}
	if cfg.Executor == nil {
		return nil, apperr.Configuration("buy_btn_pos", "no click executor")
	}
	if len(cfg.Targets) == 0 {
		return nil, apperr.Configuration("buy_btn_pos", "no click targets")
	}
	if cfg.ClickDelay < 0 {
		return nil, apperr.Configuration("click_delay", "must not be negative, got %v", cfg.ClickDelay)
	}
	if cfg.CheckInterval <= 0 {
		return nil, apperr.Configuration("check_interval", "must be positive, got %v", cfg.CheckInterval)
	}
	if cfg.MaxRetries < 0 {
		return nil, apperr.Configuration("max_retries", "must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}

	done := make(chan struct{})
	close(done)

	return &Engine{
		reader:        cfg.Reader,
		executor:      cfg.Executor,
		policy:        cfg.Policy,
		targets:       append([]settings.ClickTarget(nil), cfg.Targets...),
		clickDelay:    cfg.ClickDelay,
		checkInterval: cfg.CheckInterval,
		maxRetries:    cfg.MaxRetries,
		listener:      cfg.Listener,
		stopTimeout:   cfg.StopTimeout,
		logger:        cfg.Logger,
		state:         state.StateIdle,
		done:          done,
	}, nil
}

// Start begins a monitoring run and returns its ID. Cancelling ctx stops
// the run the same way Stop does.
func (e *Engine) Start(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == state.StateRunning {
		return "", apperr.Automation("start", nil, "a monitoring run is already active (%s)", e.last.RunID)
	}
	if !e.state.CanStart() {
		return "", apperr.Automation("start", state.NewTransitionError(e.state, state.StateRunning, ""), "cannot start")
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)

	e.state = state.StateRunning
	e.cancel = cancel
	e.done = make(chan struct{})
	e.last = state.Snapshot{
		RunID:     runID,
		State:     state.StateRunning,
		Running:   true,
		StartTime: time.Now(),
	}

	if r, ok := e.reader.(interface{ Reset() }); ok {
		r.Reset()
	}

	go e.run(runCtx, e.last, e.done)

	e.logger.Info("Monitoring started",
		"run_id", runID,
		"interval", e.checkInterval,
		"max_retries", e.maxRetries,
		"threshold", e.policy.Threshold,
	)
	return runID, nil
}

// Stop ends the active run and waits for the loop to exit. It is a
// no-op when no run is active.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != state.StateRunning {
		e.mu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(e.stopTimeout):
		e.logger.Warn("Monitoring stop timeout")
	}
}

// IsRunning reports whether a run is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == state.StateRunning
}

// State returns the engine state.
func (e *Engine) State() state.RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Last returns the most recent snapshot. After a run ends it holds the
// terminal state.
func (e *Engine) Last() state.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last.Clone()
}

// Done returns a channel closed when the current run ends. It is already
// closed while idle.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// run is the polling loop. It exclusively owns st.
func (e *Engine) run(ctx context.Context, st state.Snapshot, done chan struct{}) {
	logger := e.logger.With("run_id", st.RunID)
	finished := false

	finish := func(terminal state.RunState) {
		if finished {
			return
		}
		finished = true
		if !st.State.CanTransitionTo(terminal) {
			logger.Error("Invalid state transition", "error", state.NewTransitionError(st.State, terminal, ""))
		}
		st.State = terminal
		st.Running = false
		e.finish(st, done, logger)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Monitoring loop panicked", "error", rec)
			st.LastError = fmt.Sprintf("panic: %v", rec)
			finish(state.StateAborted)
		}
	}()

	// Reads and clicks are not interrupted by Stop; only the sleep is.
	work := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			finish(state.StateStopped)
			return
		}

		reading, err := e.reader.Read(work)
		// A stop that lands during the read must not reach the executor.
		if ctx.Err() != nil {
			finish(state.StateStopped)
			return
		}
		prev := st
		fire := err == nil && e.policy.ShouldFire(reading, prev)

		st.Cycle++
		if err == nil && reading.Recognized {
			st.CurrentCountdown = reading.Value()
			st.RetryCount = 0
			st.LastError = ""
		} else {
			st.CurrentCountdown = nil
			st.RetryCount++
			if err != nil {
				st.LastError = err.Error()
				logger.Warn("Countdown read failed", "retry", st.RetryCount, "error", err)
			} else {
				logger.Debug("Countdown not recognized", "text", reading.Text, "retry", st.RetryCount)
			}
		}
		e.publish(st, logger)

		if fire {
			logger.Info("Trigger fired", "reading", reading.String(), "previous", prev.Countdown())
			if err := e.executor.Execute(work, e.targets, e.clickDelay); err != nil {
				st.LastError = err.Error()
				finish(state.StateAborted)
				return
			}
			finish(state.StateCompleted)
			return
		}

		if st.RetryCount > e.maxRetries {
			st.LastError = apperr.Automation("monitor", nil,
				"countdown not recognized for %d consecutive readings (max_retries=%d)",
				st.RetryCount, e.maxRetries).Error()
			finish(state.StateAborted)
			return
		}

		select {
		case <-ctx.Done():
			finish(state.StateStopped)
			return
		case <-time.After(e.checkInterval):
		}
	}
}

// publish records st as the latest snapshot and hands a copy to the
// listener.
func (e *Engine) publish(st state.Snapshot, logger *slog.Logger) {
	e.mu.Lock()
	e.last = st.Clone()
	e.mu.Unlock()
	e.notify(st.Clone(), logger)
}

// finish publishes the terminal snapshot, then returns the engine to Idle.
func (e *Engine) finish(st state.Snapshot, done chan struct{}, logger *slog.Logger) {
	e.mu.Lock()
	e.last = st.Clone()
	e.state = st.State
	e.mu.Unlock()

	logger.Info("Monitoring finished",
		"state", st.State,
		"cycles", st.Cycle,
		"elapsed", st.Elapsed(time.Now()),
		"last_error", st.LastError,
	)
	e.notify(st.Clone(), logger)

	e.mu.Lock()
	// A listener may already have started the next run.
	if e.done == done {
		if e.state.CanTransitionTo(state.StateIdle) {
			e.state = state.StateIdle
		}
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
	}
	e.mu.Unlock()
	close(done)
}

func (e *Engine) notify(s state.Snapshot, logger *slog.Logger) {
	if e.listener == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Status listener panicked", "error", rec)
		}
	}()
	e.listener.OnStatus(s)
}
