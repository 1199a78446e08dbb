// Package hotkey watches for the global emergency-stop chord (Shift+Esc).
package hotkey

import "errors"

// ErrUnsupported is returned on platforms without a global keyboard hook.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Key is a platform-independent key identity.
type Key int

const (
	KeyOther Key = iota
	KeyShift
	KeyEscape
)

// chord tracks modifier state and reports when Shift+Esc goes down.
type chord struct {
	shift bool
}

func (c *chord) feed(down bool, key Key) bool {
	switch key {
	case KeyShift:
		c.shift = down
	case KeyEscape:
		return down && c.shift
	}
	return false
}
