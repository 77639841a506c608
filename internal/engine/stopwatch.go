package engine

import "time"

// Stopwatch is a small wall-clock budget tracker, mirroring the original
// engine's Stopwatch: reset it with a limit, then poll the remaining
// budget cooperatively between search steps.
type Stopwatch struct {
	limit time.Duration
	start time.Time
	set   bool
}

// Reset (re)starts the stopwatch with a new limit. A negative limit
// means "unbounded".
func (s *Stopwatch) Reset(limit time.Duration) {
	s.limit = limit
	s.start = time.Now()
	s.set = true
}

// Elapsed returns how long has passed since the last Reset.
func (s *Stopwatch) Elapsed() time.Duration {
	if !s.set {
		return 0
	}
	return time.Since(s.start)
}

// Remaining returns the remaining time budget. It is always positive
// when the stopwatch was reset with a negative (unbounded) limit.
func (s *Stopwatch) Remaining() time.Duration {
	if !s.set || s.limit < 0 {
		return time.Duration(1<<62 - 1)
	}
	return s.limit - s.Elapsed()
}

// Expired reports whether the remaining budget has been exhausted.
func (s *Stopwatch) Expired() bool {
	return s.set && s.limit >= 0 && s.Remaining() <= 0
}
