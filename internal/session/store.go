package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"
)

// Store loads and saves session state by id.
type Store interface {
	// Load returns the record for id, or a fresh State when none exists.
	Load(id string) (*State, error)
	// Save fully replaces the record for id.
	Save(id string, st *State) error
}

// Clock returns the current time. Stores use it to default fresh records.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC()
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateID checks that id is safe to use as a storage key.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after record")
	}
	return nil
}

// MemoryStore keeps records in process memory. Records are stored in
// their encoded form so callers never share maps with the store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
	now     Clock
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte), now: defaultClock}
}

// WithClock sets the clock used for fresh records.
func (m *MemoryStore) WithClock(c Clock) *MemoryStore {
	if c != nil {
		m.now = c
	}
	return m
}

// Load implements Store.
func (m *MemoryStore) Load(id string) (*State, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	data, ok := m.records[id]
	m.mu.Unlock()
	if !ok {
		return NewState(m.now()), nil
	}
	return decodeState(data)
}

// Save implements Store.
func (m *MemoryStore) Save(id string, st *State) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := encodeState(st)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	m.mu.Lock()
	m.records[id] = data
	m.mu.Unlock()
	return nil
}

// Put stores raw record bytes for id, bypassing encoding. Tests use it to
// plant malformed records.
func (m *MemoryStore) Put(id string, raw []byte) {
	m.mu.Lock()
	m.records[id] = append([]byte(nil), raw...)
	m.mu.Unlock()
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
