// Package runstate models the simulation-driven time values the dispatch
// engine depends on: the monotone network clock and the timestamp of
// the most recent Advance. It does not track the packet currently being
// processed. None of this is wall-clock time
// — tests and callers advance it explicitly, packet by packet, the way
// spec.md's concurrency model requires.
package runstate

import "time"

// Clock carries the simulated network time the whole engine reasons
// about. It is threaded explicitly rather than kept as a package-level
// singleton so independent test fixtures never interfere with each
// other (spec.md §9: "tests must be able to construct independent
// contexts").
type Clock struct {
	// started is true once the first packet has begun processing;
	// NetworkTime is meaningless before that point, mirroring
	// Zeek's "run_state::network_time" being zero/undefined pre-init.
	started     bool
	networkTime time.Duration

	// ProcessingStartTime is the timestamp passed to the most recent
	// Advance call; it differs from NetworkTime when that timestamp was
	// earlier than the clock's current value.
	ProcessingStartTime time.Duration
}

// NewClock returns a clock that has not yet started processing.
func NewClock() *Clock {
	return &Clock{}
}

// Started reports whether any packet has been processed yet.
func (c *Clock) Started() bool {
	return c.started
}

// NetworkTime returns the current simulated network time. Its value is
// undefined (zero) until Advance has been called at least once; callers
// that care must check Started first.
func (c *Clock) NetworkTime() time.Duration {
	return c.networkTime
}

// Advance moves the simulated clock forward to ts, the timestamp carried
// by the packet currently being dispatched. It is monotonic: advancing
// to a time at or before the current value leaves NetworkTime unchanged
// and only records that processing has started and ProcessingStartTime, since out-of-order delivery at
// the capture layer should never rewind scheduling decisions.
func (c *Clock) Advance(ts time.Duration) {
	c.started = true
	c.ProcessingStartTime = ts
	if ts > c.networkTime {
		c.networkTime = ts
	}
}
