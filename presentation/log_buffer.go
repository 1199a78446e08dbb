package presentation

import (
	"strings"
	"sync"
)

// LogBuffer keeps the most recent log lines for the log view. It is
// installed as the logging mirror writer.
type LogBuffer struct {
	mu       sync.Mutex
	lines    []string
	partial  string
	maxLines int
	onChange func()
}

// NewLogBuffer creates a buffer holding at most maxLines lines.
func NewLogBuffer(maxLines int) *LogBuffer {
	if maxLines <= 0 {
		maxLines = 500
	}
	return &LogBuffer{maxLines: maxLines}
}

// Write appends complete lines; a trailing fragment waits for its newline.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	text := b.partial + string(p)
	parts := strings.Split(text, "\n")
	b.partial = parts[len(parts)-1]
	added := parts[:len(parts)-1]
	if len(added) > 0 {
		b.lines = append(b.lines, added...)
		if over := len(b.lines) - b.maxLines; over > 0 {
			b.lines = append([]string(nil), b.lines[over:]...)
		}
	}
	notify := b.onChange
	b.mu.Unlock()

	if len(added) > 0 && notify != nil {
		notify()
	}
	return len(p), nil
}

// SetOnChange registers a callback invoked after new lines arrive.
func (b *LogBuffer) SetOnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Text returns the buffered lines joined by newlines.
func (b *LogBuffer) Text() string {
	return strings.Join(b.Lines(), "\n")
}
