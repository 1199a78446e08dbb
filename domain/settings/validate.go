package settings

import (
	"image"
	"regexp"
	"strings"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/domain/countdown"
)

var logLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// Validate checks the snapshot for structural errors. It returns the
// first problem found as a configuration error.
func (s Settings) Validate() error {
	if len(s.CountdownBox) != 4 {
		return apperr.Configuration("countdown_box", "must be [left, top, right, bottom], got %d values", len(s.CountdownBox))
	}
	for _, v := range s.CountdownBox {
		if v < 0 {
			return apperr.Configuration("countdown_box", "coordinates must be non-negative, got %v", s.CountdownBox)
		}
	}
	if r := s.Region(); r.Empty() {
		return apperr.Configuration("countdown_box", "region must have positive size, got %dx%d", r.Width, r.Height)
	}

	if err := validatePoint("buy_btn_pos", s.BuyButton); err != nil {
		return err
	}
	if s.EnableConfirmClick {
		if err := validatePoint("confirm_btn_pos", s.ConfirmButton); err != nil {
			return err
		}
	}

	if s.ClickDelay < 0 {
		return apperr.Configuration("click_delay", "must not be negative, got %v", s.ClickDelay)
	}
	if s.CheckInterval <= 0 {
		return apperr.Configuration("check_interval", "must be positive, got %v", s.CheckInterval)
	}
	if s.MaxRetries < 0 {
		return apperr.Configuration("max_retries", "must not be negative, got %d", s.MaxRetries)
	}
	if s.TriggerThreshold < 0 {
		return apperr.Configuration("trigger_threshold", "must not be negative, got %d", s.TriggerThreshold)
	}
	if s.VanishWindow < 0 {
		return apperr.Configuration("vanish_window", "must not be negative, got %d", s.VanishWindow)
	}

	if len(s.CountdownFormats) == 0 {
		return apperr.Configuration("countdown_formats", "at least one format is required")
	}
	for _, f := range s.CountdownFormats {
		if name, ok := strings.CutPrefix(f, countdown.PresetPrefix); ok {
			if name == "" {
				return apperr.Configuration("countdown_formats", "empty preset name")
			}
			continue
		}
		if _, err := regexp.Compile(f); err != nil {
			return &apperr.Error{
				Kind:    apperr.KindConfiguration,
				Field:   "countdown_formats",
				Message: "invalid pattern " + f,
				Cause:   err,
			}
		}
	}

	if s.OCRPageSegMode < 0 || s.OCRPageSegMode > 13 {
		return apperr.Configuration("ocr_psm", "must be between 0 and 13, got %d", s.OCRPageSegMode)
	}
	if e := s.ImageEnhancement; e.ContrastFactor < 0 || e.Scale < 0 || e.Threshold < 0 || e.Threshold > 255 {
		return apperr.Configuration("image_enhancement", "contrast_factor and scale must not be negative, threshold must be 0-255")
	}

	switch strings.ToLower(s.InputBackend) {
	case "", InputOS:
	case InputSerial:
		if s.SerialPort == "" {
			return apperr.Configuration("serial_port", "required when input_backend is serial")
		}
		if s.SerialBaud <= 0 {
			return apperr.Configuration("serial_baud", "must be positive, got %d", s.SerialBaud)
		}
	default:
		return apperr.Configuration("input_backend", "unknown backend %q", s.InputBackend)
	}

	if !logLevels[strings.ToLower(s.LogLevel)] {
		return apperr.Configuration("log_level", "unknown level %q", s.LogLevel)
	}
	return nil
}

func validatePoint(field string, v []int) error {
	if len(v) != 2 {
		return apperr.Configuration(field, "must be [x, y], got %d values", len(v))
	}
	if v[0] < 0 || v[1] < 0 {
		return apperr.Configuration(field, "coordinates must be non-negative, got %v", v)
	}
	return nil
}

// CheckBounds verifies the region and click targets lie within the
// virtual screen. An empty bounds rectangle skips the check.
func (s Settings) CheckBounds(bounds image.Rectangle) error {
	if bounds.Empty() {
		return nil
	}
	if r := s.Region().Rect(); !r.In(bounds) {
		return apperr.Configuration("countdown_box", "region %v is outside the screen %v", r, bounds)
	}
	for _, t := range s.ClickTargets() {
		if !t.Point.In(bounds) {
			return apperr.Configuration(t.Name+"_btn_pos", "point (%d, %d) is outside the screen %v", t.Point.X, t.Point.Y, bounds)
		}
	}
	return nil
}
