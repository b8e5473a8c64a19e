// Package session persists per-shell confirmation state.
//
// A State is keyed by a session id (by default the parent shell's pid).
// Stores never lock: when two invocations of the same session save at
// once, the last writer wins and the earlier confirmation is lost.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// ErrCorruptState is returned when a persisted record exists but cannot be
// decoded under the current schema.
var ErrCorruptState = errors.New("corrupt session state")

// ErrInvalidSessionID is returned for ids that cannot be used as a storage key.
var ErrInvalidSessionID = errors.New("invalid session id")

// State is the confirmation history of one session.
type State struct {
	LastConfirmedAt   time.Time       `json:"last_confirmed_at"`
	ConfirmedContexts map[string]bool `json:"confirmed_contexts"`
}

// NewState returns the default record for a session with no history.
func NewState(now time.Time) *State {
	return &State{
		LastConfirmedAt:   now.UTC(),
		ConfirmedContexts: make(map[string]bool),
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		LastConfirmedAt:   s.LastConfirmedAt,
		ConfirmedContexts: make(map[string]bool, len(s.ConfirmedContexts)),
	}
	maps.Copy(out.ConfirmedContexts, s.ConfirmedContexts)
	return out
}

// wireState mirrors State with pointer fields so missing keys are detectable.
type wireState struct {
	LastConfirmedAt   *time.Time      `json:"last_confirmed_at"`
	ConfirmedContexts map[string]bool `json:"confirmed_contexts"`
}

// encodeState serializes st in the persisted JSON form.
func encodeState(st *State) ([]byte, error) {
	if st == nil {
		return nil, errors.New("state is nil")
	}
	contexts := st.ConfirmedContexts
	if contexts == nil {
		contexts = map[string]bool{}
	}
	ts := st.LastConfirmedAt.UTC()
	return json.Marshal(wireState{LastConfirmedAt: &ts, ConfirmedContexts: contexts})
}

// decodeState parses a persisted record strictly: unknown fields, missing
// fields and a null map are all rejected with ErrCorruptState.
func decodeState(data []byte) (*State, error) {
	var w wireState
	if err := decodeStrict(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if w.LastConfirmedAt == nil {
		return nil, fmt.Errorf("%w: missing last_confirmed_at", ErrCorruptState)
	}
	if w.ConfirmedContexts == nil {
		return nil, fmt.Errorf("%w: missing confirmed_contexts", ErrCorruptState)
	}
	return &State{
		LastConfirmedAt:   w.LastConfirmedAt.UTC(),
		ConfirmedContexts: w.ConfirmedContexts,
	}, nil
}
