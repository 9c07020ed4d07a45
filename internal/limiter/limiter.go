// Package limiter implements login attempt limiting with temporary lockouts.
package limiter

import "time"

// Limiter controls login attempts and temporary lockouts, keyed by account.
type Limiter interface {
	// Allow reports whether a login attempt is currently permitted and, when
	// blocked, how long until the next attempt may proceed.
	Allow(key string) (bool, time.Duration)
	// Success resets counters after a successful login.
	Success(key string)
	// Failure records a failed attempt; reports whether the key is now blocked.
	Failure(key string) bool
}
