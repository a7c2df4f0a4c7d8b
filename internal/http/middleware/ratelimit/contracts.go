package ratelimit

import "time"

// Limiter decides whether a keyed caller may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Clock provides the current time, injectable for tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current wall time.
func (RealClock) Now() time.Time { return time.Now() }

// NopLimiter allows everything.
type NopLimiter struct{}

// Allow always returns true.
func (NopLimiter) Allow(string) bool { return true }

// NewNopLimiter returns a NopLimiter as a Limiter.
func NewNopLimiter() Limiter { return NopLimiter{} }
