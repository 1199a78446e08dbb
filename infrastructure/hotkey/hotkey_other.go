//go:build !windows

package hotkey

import (
	"context"
	"log/slog"
)

// Watch is unavailable without a global keyboard hook.
func Watch(ctx context.Context, onStop func(), logger *slog.Logger) error {
	return ErrUnsupported
}
