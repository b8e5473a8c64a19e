// Package core decides when a command needs operator confirmation.
package core

import (
	"time"

	"github.com/Dicklesworthstone/kcwrap/internal/session"
)

// DebounceWindow is how long a confirmation stays fresh. Once it has
// elapsed since the last confirmation, every context prompts again.
const DebounceWindow = 10 * time.Minute

// Reason explains a Decision.
type Reason string

const (
	// ReasonStale means the last confirmation is older than DebounceWindow.
	ReasonStale Reason = "stale"
	// ReasonUnconfirmed means the context was never confirmed in this session.
	ReasonUnconfirmed Reason = "unconfirmed"
	// ReasonRecent means the context was confirmed inside the window.
	ReasonRecent Reason = "recent"
)

// Decision is the outcome of evaluating a session against a context.
type Decision struct {
	Prompt bool          `json:"prompt"`
	Reason Reason        `json:"reason"`
	Age    time.Duration `json:"age"`
}

// Decide evaluates st for context at now.
//
// Staleness is checked first and overrides per-context history. Inside
// the window, a context prompts unless its flag is set. A timestamp ahead
// of now (clock skew between shells) gives a negative age and counts as
// inside the window.
func Decide(st *session.State, context string, now time.Time) Decision {
	if st == nil {
		return Decision{Prompt: true, Reason: ReasonUnconfirmed}
	}

	age := now.Sub(st.LastConfirmedAt)
	if age >= DebounceWindow {
		return Decision{Prompt: true, Reason: ReasonStale, Age: age}
	}

	confirmed, ok := st.ConfirmedContexts[context]
	if !ok || !confirmed {
		return Decision{Prompt: true, Reason: ReasonUnconfirmed, Age: age}
	}
	return Decision{Prompt: false, Reason: ReasonRecent, Age: age}
}

// ShouldPrompt reports whether context needs confirmation at now.
func ShouldPrompt(st *session.State, context string, now time.Time) bool {
	return Decide(st, context, now).Prompt
}

// Confirm returns a copy of st with context marked confirmed and the
// confirmation time set to now. The timestamp never moves backwards.
// The caller persists the result.
func Confirm(st *session.State, context string, now time.Time) *session.State {
	next := st.Clone()
	if next == nil {
		next = session.NewState(now)
	}

	now = now.UTC()
	if now.After(next.LastConfirmedAt) {
		next.LastConfirmedAt = now
	}
	next.ConfirmedContexts[context] = true
	return next
}
