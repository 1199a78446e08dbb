package state

import "time"

// Snapshot is a point-in-time copy of a monitoring run, handed to
// listeners. It never aliases the engine's live state.
type Snapshot struct {
	RunID            string
	State            RunState
	Running          bool
	CurrentCountdown *int
	RetryCount       int
	LastError        string
	StartTime        time.Time
	Cycle            int
}

// HasCountdown reports whether the last reading was recognized.
func (s Snapshot) HasCountdown() bool {
	return s.CurrentCountdown != nil
}

// Countdown returns the last recognized countdown, or -1.
func (s Snapshot) Countdown() int {
	if s.CurrentCountdown == nil {
		return -1
	}
	return *s.CurrentCountdown
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s.CurrentCountdown != nil {
		v := *s.CurrentCountdown
		s.CurrentCountdown = &v
	}
	return s
}

// Elapsed returns how long the run has been going at time now.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}
