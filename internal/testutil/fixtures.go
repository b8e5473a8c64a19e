package testutil

import (
	"sync"
	"time"

	"github.com/Dicklesworthstone/kcwrap/internal/session"
)

// T0 is a fixed reference time for deterministic tests.
var T0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StateOption customizes a fixture state.
type StateOption func(*session.State)

// ConfirmedAt sets the last confirmation time.
func ConfirmedAt(ts time.Time) StateOption {
	return func(s *session.State) { s.LastConfirmedAt = ts }
}

// WithContexts marks contexts as confirmed.
func WithContexts(contexts ...string) StateOption {
	return func(s *session.State) {
		for _, c := range contexts {
			s.ConfirmedContexts[c] = true
		}
	}
}

// MakeState builds a session state at T0 with options applied.
func MakeState(opts ...StateOption) *session.State {
	st := session.NewState(T0)
	for _, opt := range opts {
		opt(st)
	}
	return st
}
