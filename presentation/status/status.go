// Package status renders run snapshots as short human-readable text.
package status

import (
	"fmt"
	"strings"
	"time"

	"smartbuyer-go/core/event"
	"smartbuyer-go/core/state"
	"smartbuyer-go/domain/countdown"
)

// Countdown returns the remaining time, or a placeholder for a miss.
func Countdown(s state.Snapshot) string {
	if !s.HasCountdown() {
		return "--"
	}
	return countdown.FormatRemaining(s.Countdown())
}

// Line summarizes one polling cycle.
func Line(s state.Snapshot, maxRetries int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", s.Cycle, Countdown(s))
	if s.RetryCount > 0 {
		fmt.Fprintf(&b, " (miss %d/%d)", s.RetryCount, maxRetries)
	}
	if s.LastError != "" {
		fmt.Fprintf(&b, " error: %s", s.LastError)
	}
	return b.String()
}

// Summary describes how a run ended.
func Summary(s state.Snapshot, reason event.StopReason, now time.Time) string {
	elapsed := s.Elapsed(now).Round(100 * time.Millisecond)

	var msg string
	switch reason {
	case event.StopReasonCompleted:
		msg = "purchase clicks sent"
	case event.StopReasonManual:
		msg = "stopped"
	case event.StopReasonRetriesExhausted:
		msg = fmt.Sprintf("countdown lost after %d misses", s.RetryCount)
	default:
		msg = "aborted"
	}

	out := fmt.Sprintf("%s: %s after %s (%d cycles)", s.State, msg, elapsed, s.Cycle)
	if s.LastError != "" && reason != event.StopReasonCompleted {
		out += ": " + s.LastError
	}
	return out
}
