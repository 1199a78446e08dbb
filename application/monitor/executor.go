package monitor

import (
	"context"
	"image"
	"log/slog"
	"time"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/input"
)

// ClickExecutor dispatches an ordered click sequence.
type ClickExecutor interface {
	Execute(ctx context.Context, targets []settings.ClickTarget, delay time.Duration) error
}

// Executor clicks each target in order, waiting delay between clicks.
// It never retries: the first failure ends the sequence.
type Executor struct {
	clicker input.Clicker
	bounds  image.Rectangle
	logger  *slog.Logger
}

// NewExecutor creates a click executor. A non-empty bounds rejects
// targets outside the virtual screen before any click is sent.
func NewExecutor(clicker input.Clicker, bounds image.Rectangle, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		clicker: clicker,
		bounds:  bounds,
		logger:  logger,
	}
}

// Execute performs the click sequence.
func (e *Executor) Execute(ctx context.Context, targets []settings.ClickTarget, delay time.Duration) error {
	if len(targets) == 0 {
		return apperr.Automation("click", nil, "no click targets")
	}
	if !e.bounds.Empty() {
		for _, t := range targets {
			if !t.Point.In(e.bounds) {
				return apperr.Automation("click "+t.Name, nil, "point (%d, %d) is outside the screen %v", t.Point.X, t.Point.Y, e.bounds)
			}
		}
	}

	for i, t := range targets {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return apperr.Automation("click "+t.Name, ctx.Err(), "cancelled before click")
			case <-time.After(delay):
			}
		}

		if err := e.clicker.Click(ctx, t.Point.X, t.Point.Y); err != nil {
			e.logger.Error("Click failed", "target", t.Name, "x", t.Point.X, "y", t.Point.Y, "error", err)
			return apperr.Automation("click "+t.Name, err, "failed to click %s at (%d, %d)", t.Name, t.Point.X, t.Point.Y)
		}
		e.logger.Info("Clicked", "target", t.Name, "x", t.Point.X, "y", t.Point.Y)
	}
	return nil
}

var _ ClickExecutor = (*Executor)(nil)
