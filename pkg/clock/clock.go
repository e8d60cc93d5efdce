// Package clock mediates every time-dependent decision in the filesystem
// core — the buffer cache's 30 second flush interval chief among them —
// behind an interface, so tests can advance time deterministically
// instead of sleeping on wall-clock time. Adapted from the teacher's
// pkg/clock, trimmed to the subset the cache's tick/flush path needs.
package clock

import "time"

// Clock is the monotonic tick source the spec's §4.2/§5 treat as an
// external collaborator.
type Clock interface {
	// Now returns the current time of day. Equivalent to time.Now().
	Now() time.Time

	// NewTimer creates a channel that publishes once, after d has
	// elapsed.
	NewTimer(d time.Duration) (Timer, <-chan time.Time)

	// NewTicker creates a channel that publishes repeatedly, every d.
	NewTicker(d time.Duration) (Ticker, <-chan time.Time)
}

// Timer is an interface around time.Timer, added so it can be faked in
// tests.
type Timer interface {
	Stop() bool
}

// Ticker is an interface around time.Ticker, added so it can be faked in
// tests.
type Ticker interface {
	Stop()
}
