//go:build windows

package hotkey

import (
	"context"
	"log/slog"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// Watch installs a low-level keyboard hook and calls onStop for every
// Shift+Esc press until ctx is done.
func Watch(ctx context.Context, onStop func(), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	events := make(chan types.KeyboardEvent, 100)
	go func() {
		if err := keyboard.Install(nil, events); err != nil {
			logger.Warn("Keyboard hook install failed", "error", err)
		}
	}()

	go func() {
		defer keyboard.Uninstall()

		var c chord
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				down := ev.Message == types.WM_KEYDOWN
				if c.feed(down, keyOf(ev.VKCode)) {
					logger.Info("Stop hotkey pressed")
					onStop()
				}
			}
		}
	}()
	return nil
}

func keyOf(vk types.VKCode) Key {
	switch vk {
	case types.VK_LSHIFT, types.VK_RSHIFT:
		return KeyShift
	case types.VK_ESCAPE:
		return KeyEscape
	default:
		return KeyOther
	}
}
