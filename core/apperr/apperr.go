// Package apperr defines the error taxonomy shared by the engine, the
// configuration store and the presentation shells.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindConfiguration is invalid or missing configuration.
	KindConfiguration Kind = iota + 1
	// KindOCR is an unavailable or misconfigured recognition engine.
	KindOCR
	// KindAutomation is a run-time automation failure.
	KindAutomation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindOCR:
		return "OCRError"
	case KindAutomation:
		return "AutomationError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the structured application error.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "click buy"
	Field   string // configuration key, for KindConfiguration
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	switch {
	case e.Field != "":
		s += " [" + e.Field + "]"
	case e.Op != "":
		s += " [" + e.Op + "]"
	}
	s += ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error of the same kind with no other fields set,
// so errors.Is(err, &Error{Kind: KindOCR}) works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Field == "" && t.Message == "" && t.Cause == nil
}

// Configuration creates a KindConfiguration error for a config key.
func Configuration(field, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Field: field, Message: fmt.Sprintf(format, args...)}
}

// OCR creates a KindOCR error.
func OCR(op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindOCR, Op: op, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Automation creates a KindAutomation error.
func Automation(op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindAutomation, Op: op, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsOCR reports whether err is an OCR engine error.
func IsOCR(err error) bool { return KindOf(err) == KindOCR }

// IsAutomation reports whether err is an automation error.
func IsAutomation(err error) bool { return KindOf(err) == KindAutomation }
