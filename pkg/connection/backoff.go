package connection

import (
	"math/rand"
	"time"
)

// Redial timing defaults.
const (
	DefaultFirstDelay = 1 * time.Second
	DefaultMaxDelay   = 60 * time.Second
	DefaultGrowth     = 2.0
	DefaultJitter     = 0.25
)

// Schedule computes the delay before each redial attempt. The zero
// value uses the defaults. A Schedule holds no state; the caller
// tracks the attempt number.
type Schedule struct {
	// FirstDelay is the delay before the first redial attempt.
	FirstDelay time.Duration

	// MaxDelay caps the delay; attempts keep repeating at this cap.
	MaxDelay time.Duration

	// Growth is the per-attempt multiplier.
	Growth float64

	// Jitter is the maximum random adjustment, as a fraction of the
	// base delay. Jitter keeps a fleet of controllers from redialing
	// a restarting host in lockstep.
	Jitter float64
}

// Base returns the un-jittered delay before redial attempt n. Attempts
// are numbered from 1.
func (s Schedule) Base(n int) time.Duration {
	first, max, growth, _ := s.params()
	if n < 1 {
		n = 1
	}
	d := float64(first)
	for i := 1; i < n; i++ {
		d *= growth
		if d >= float64(max) {
			return max
		}
	}
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}

// Delay returns the delay before redial attempt n with jitter applied.
// A nil rng disables jitter, which makes redial timing deterministic.
func (s Schedule) Delay(n int, rng *rand.Rand) time.Duration {
	base := s.Base(n)
	_, _, _, jitter := s.params()
	if rng == nil || jitter <= 0 {
		return base
	}
	span := float64(base) * jitter
	d := time.Duration(float64(base) + (rng.Float64()*2-1)*span)
	if d < 0 {
		return 0
	}
	return d
}

func (s Schedule) params() (first, max time.Duration, growth, jitter float64) {
	first, max, growth, jitter = s.FirstDelay, s.MaxDelay, s.Growth, s.Jitter
	if first <= 0 {
		first = DefaultFirstDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	if growth <= 1 {
		growth = DefaultGrowth
	}
	if jitter == 0 {
		jitter = DefaultJitter
	}
	return first, max, growth, jitter
}
