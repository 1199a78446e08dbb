// Package countdown turns OCR text into countdown readings and decides
// when a purchase should fire.
package countdown

import "fmt"

// Reading is one OCR-derived countdown value, or a miss.
type Reading struct {
	Seconds    int
	Recognized bool
	Text       string // normalized OCR text the reading came from
	Format     string // pattern that matched, empty on a miss
}

// Recognized returns a reading for the given number of seconds.
func Recognized(seconds int, text, format string) Reading {
	return Reading{Seconds: seconds, Recognized: true, Text: text, Format: format}
}

// Unrecognized returns a miss for the given text.
func Unrecognized(text string) Reading {
	return Reading{Text: text}
}

func (r Reading) String() string {
	if !r.Recognized {
		return "unrecognized"
	}
	return FormatRemaining(r.Seconds)
}

// Value returns a pointer to the seconds, or nil for a miss.
func (r Reading) Value() *int {
	if !r.Recognized {
		return nil
	}
	v := r.Seconds
	return &v
}

// FormatRemaining renders seconds the way the countdown overlays do:
// 45秒, 1分05秒, 1时02分03秒.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d秒", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d分%02d秒", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%d时%02d分%02d秒", seconds/3600, seconds%3600/60, seconds%60)
	}
}
