package application

import (
	"time"

	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/ocr"
)

// recognizeTimeout bounds a single tesseract invocation.
const recognizeTimeout = 5 * time.Second

// NewTesseractEngine builds the tesseract engine described by s.
func NewTesseractEngine(s settings.Settings) (ocr.Engine, error) {
	t, err := ocr.NewTesseract(&ocr.TesseractConfig{
		Path:        s.TesseractPath,
		Language:    s.OCRLanguage,
		PageSegMode: s.OCRPageSegMode,
		Whitelist:   s.OCRWhitelist,
		Timeout:     recognizeTimeout,
		Verify:      true,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// PreprocessOptions maps image_enhancement onto OCR preprocessing.
func PreprocessOptions(s settings.Settings) ocr.PreprocessOptions {
	e := s.ImageEnhancement
	return ocr.PreprocessOptions{
		ContrastFactor: e.ContrastFactor,
		Threshold:      uint8(e.Threshold),
		Invert:         e.Invert,
		Scale:          e.Scale,
	}
}

// Policy builds the trigger policy from s.
func Policy(s settings.Settings) countdown.Policy {
	return countdown.Policy{
		Threshold:    s.TriggerThreshold,
		FireOnVanish: s.FireOnVanish,
		VanishWindow: s.VanishWindow,
	}
}
