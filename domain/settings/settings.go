// Package settings defines the immutable configuration snapshot the
// monitoring engine is built from.
package settings

import (
	"image"
	"slices"
	"strings"
	"time"

	"smartbuyer-go/domain/countdown"
)

// Input backends.
const (
	InputOS     = "os"
	InputSerial = "serial"
)

// ImageEnhancement tunes OCR preprocessing.
type ImageEnhancement struct {
	ContrastFactor float64 `json:"contrast_factor" mapstructure:"contrast_factor"`
	Threshold      int     `json:"threshold" mapstructure:"threshold"` // 0 disables binarization
	Invert         bool    `json:"invert" mapstructure:"invert"`
	Scale          float64 `json:"scale" mapstructure:"scale"`
}

// Settings is one configuration snapshot. Times are in seconds to match
// the persisted JSON.
type Settings struct {
	CountdownBox       []int    `json:"countdown_box" mapstructure:"countdown_box"` // left, top, right, bottom
	BuyButton          []int    `json:"buy_btn_pos" mapstructure:"buy_btn_pos"`
	ConfirmButton      []int    `json:"confirm_btn_pos" mapstructure:"confirm_btn_pos"`
	ClickDelay         float64  `json:"click_delay" mapstructure:"click_delay"`
	CheckInterval      float64  `json:"check_interval" mapstructure:"check_interval"`
	MaxRetries         int      `json:"max_retries" mapstructure:"max_retries"`
	EnableConfirmClick bool     `json:"enable_confirm_click" mapstructure:"enable_confirm_click"`
	CountdownFormats   []string `json:"countdown_formats" mapstructure:"countdown_formats"`
	TesseractPath      string   `json:"tesseract_path" mapstructure:"tesseract_path"`

	TriggerThreshold int  `json:"trigger_threshold" mapstructure:"trigger_threshold"`
	FireOnVanish     bool `json:"fire_on_vanish" mapstructure:"fire_on_vanish"`
	VanishWindow     int  `json:"vanish_window" mapstructure:"vanish_window"`

	OCRPageSegMode      int              `json:"ocr_psm" mapstructure:"ocr_psm"`
	OCRLanguage         string           `json:"ocr_language" mapstructure:"ocr_language"`
	OCRWhitelist        string           `json:"ocr_whitelist" mapstructure:"ocr_whitelist"`
	ImageEnhancement    ImageEnhancement `json:"image_enhancement" mapstructure:"image_enhancement"`
	SkipUnchangedFrames bool             `json:"skip_unchanged_frames" mapstructure:"skip_unchanged_frames"`

	InputBackend string `json:"input_backend" mapstructure:"input_backend"`
	SerialPort   string `json:"serial_port" mapstructure:"serial_port"`
	SerialBaud   int    `json:"serial_baud" mapstructure:"serial_baud"`

	SoundAlerts bool   `json:"sound_alerts" mapstructure:"sound_alerts"`
	StopHotkey  bool   `json:"stop_hotkey" mapstructure:"stop_hotkey"`
	LogLevel    string `json:"log_level" mapstructure:"log_level"`
	LogFile     string `json:"log_file" mapstructure:"log_file"`
}

// Default returns the stock configuration.
func Default() Settings {
	return Settings{
		CountdownBox:       []int{100, 200, 300, 240},
		BuyButton:          []int{500, 600},
		ConfirmButton:      []int{550, 650},
		ClickDelay:         0.05,
		CheckInterval:      0.1,
		MaxRetries:         3,
		EnableConfirmClick: true,
		CountdownFormats:   slices.Clone(countdown.DefaultFormats),
		TesseractPath:      "",
		TriggerThreshold:   0,
		FireOnVanish:       true,
		VanishWindow:       0,
		OCRPageSegMode:     8,
		OCRLanguage:        "eng",
		OCRWhitelist:       "0123456789:",
		ImageEnhancement: ImageEnhancement{
			ContrastFactor: 2.0,
			Threshold:      0,
			Invert:         false,
			Scale:          2.0,
		},
		SkipUnchangedFrames: false,
		InputBackend:        InputOS,
		SerialPort:          "",
		SerialBaud:          9600,
		SoundAlerts:         true,
		StopHotkey:          true,
		LogLevel:            "info",
		LogFile:             "smartbuyer.log",
	}
}

// Clone returns a deep copy so callers cannot mutate a shared snapshot.
func (s Settings) Clone() Settings {
	s.CountdownBox = slices.Clone(s.CountdownBox)
	s.BuyButton = slices.Clone(s.BuyButton)
	s.ConfirmButton = slices.Clone(s.ConfirmButton)
	s.CountdownFormats = slices.Clone(s.CountdownFormats)
	return s
}

// Region returns the countdown capture area.
func (s Settings) Region() Region {
	if len(s.CountdownBox) != 4 {
		return Region{}
	}
	l, t, r, b := s.CountdownBox[0], s.CountdownBox[1], s.CountdownBox[2], s.CountdownBox[3]
	return Region{X: l, Y: t, Width: r - l, Height: b - t}
}

// BuyPoint returns the buy button position.
func (s Settings) BuyPoint() Point { return pointOf(s.BuyButton) }

// ConfirmPoint returns the confirm button position.
func (s Settings) ConfirmPoint() Point { return pointOf(s.ConfirmButton) }

// ClickTargets returns the click sequence: buy, then confirm when enabled.
func (s Settings) ClickTargets() []ClickTarget {
	targets := []ClickTarget{{Name: "buy", Point: s.BuyPoint()}}
	if s.EnableConfirmClick {
		targets = append(targets, ClickTarget{Name: "confirm", Point: s.ConfirmPoint()})
	}
	return targets
}

// ClickDelayDuration returns click_delay as a duration.
func (s Settings) ClickDelayDuration() time.Duration { return seconds(s.ClickDelay) }

// CheckIntervalDuration returns check_interval as a duration.
func (s Settings) CheckIntervalDuration() time.Duration { return seconds(s.CheckInterval) }

// UsesSerialInput reports whether clicks go through the serial bridge.
func (s Settings) UsesSerialInput() bool {
	return strings.EqualFold(s.InputBackend, InputSerial)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func pointOf(v []int) Point {
	if len(v) != 2 {
		return Point{X: -1, Y: -1}
	}
	return Point{X: v[0], Y: v[1]}
}

// Region is a screen rectangle.
type Region struct {
	X, Y          int
	Width, Height int
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Point is a screen coordinate.
type Point struct {
	X, Y int
}

// In reports whether p lies inside bounds.
func (p Point) In(bounds image.Rectangle) bool {
	return image.Pt(p.X, p.Y).In(bounds)
}

// ClickTarget is a named click position.
type ClickTarget struct {
	Name  string
	Point Point
}
