package countdown

import (
	"strings"
	"unicode"
)

// Parser matches OCR text against an ordered list of formats.
// The first format that yields a value wins.
type Parser struct {
	formats []Format
}

// NewParser compiles patterns into a parser. An empty list falls back to
// DefaultFormats.
func NewParser(patterns []string) (*Parser, error) {
	if len(patterns) == 0 {
		patterns = DefaultFormats
	}
	formats, err := CompileFormats(patterns)
	if err != nil {
		return nil, err
	}
	return &Parser{formats: formats}, nil
}

// Formats returns the configured patterns in match order.
func (p *Parser) Formats() []string {
	out := make([]string, len(p.formats))
	for i, f := range p.formats {
		out[i] = f.Pattern
	}
	return out
}

// Parse converts OCR output into a reading. It never fails: text that no
// format accepts is an unrecognized reading.
func (p *Parser) Parse(text string) Reading {
	norm := Normalize(text)
	if norm == "" {
		return Unrecognized(norm)
	}
	for _, f := range p.formats {
		if secs, ok := f.Match(norm); ok {
			return Recognized(secs, norm, f.Pattern)
		}
	}
	return Unrecognized(norm)
}

var ocrReplacer = strings.NewReplacer(
	"：", ":",
	"；", ":",
	";", ":",
	"O", "0",
	"o", "0",
)

// Normalize strips whitespace and maps common OCR confusions onto the
// characters the formats expect.
func Normalize(text string) string {
	text = ocrReplacer.Replace(text)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
