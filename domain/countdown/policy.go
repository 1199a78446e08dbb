package countdown

import "smartbuyer-go/core/state"

// Policy decides when the purchase fires.
type Policy struct {
	// Threshold fires on any recognized reading at or below it.
	Threshold int
	// FireOnVanish fires when a recognized countdown is immediately
	// followed by an unrecognized reading.
	FireOnVanish bool
	// VanishWindow limits FireOnVanish to previous readings at or below
	// this many seconds. Zero means no limit.
	VanishWindow int
}

// DefaultPolicy fires at zero or when the countdown disappears.
func DefaultPolicy() Policy {
	return Policy{Threshold: 0, FireOnVanish: true}
}

// ShouldFire evaluates reading against the run state from before the
// reading was applied.
func (p Policy) ShouldFire(reading Reading, prev state.Snapshot) bool {
	if reading.Recognized {
		return reading.Seconds <= p.Threshold
	}
	if !p.FireOnVanish || !prev.HasCountdown() {
		return false
	}
	if p.VanishWindow > 0 && prev.Countdown() > p.VanishWindow {
		return false
	}
	return true
}
