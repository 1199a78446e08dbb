// Package input synthesizes mouse clicks.
package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-vgo/robotgo"
)

// Clicker dispatches a single left click at a screen coordinate.
type Clicker interface {
	Click(ctx context.Context, x, y int) error
}

// DesktopClicker moves the OS cursor and clicks.
type DesktopClicker struct {
	mu sync.Mutex
}

// NewDesktopClicker creates a clicker driving the local cursor.
func NewDesktopClicker() *DesktopClicker {
	return &DesktopClicker{}
}

// Click moves to (x, y) and presses the left button.
func (c *DesktopClicker) Click(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if x < 0 || y < 0 {
		return fmt.Errorf("invalid click position (%d, %d)", x, y)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	robotgo.Move(x, y)
	robotgo.Click("left", false)
	return nil
}

var _ Clicker = (*DesktopClicker)(nil)

// DryRunClicker logs clicks without dispatching them.
type DryRunClicker struct {
	logger *slog.Logger

	mu     sync.Mutex
	clicks [][2]int
}

// NewDryRunClicker creates a logging-only clicker.
func NewDryRunClicker(logger *slog.Logger) *DryRunClicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunClicker{logger: logger}
}

// Click records the position.
func (c *DryRunClicker) Click(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.clicks = append(c.clicks, [2]int{x, y})
	c.mu.Unlock()

	c.logger.Info("Dry-run click", "x", x, "y", y)
	return nil
}

// Clicks returns the recorded positions in order.
func (c *DryRunClicker) Clicks() [][2]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][2]int, len(c.clicks))
	copy(out, c.clicks)
	return out
}

var _ Clicker = (*DryRunClicker)(nil)
