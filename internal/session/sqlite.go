package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                 TEXT PRIMARY KEY,
	last_confirmed_at  TEXT NOT NULL,
	confirmed_contexts TEXT NOT NULL,
	updated_at         TEXT NOT NULL
)`

// SQLiteStore keeps all sessions in one SQLite database.
// Load and Save are separate statements; there is no read-modify-write
// transaction, so concurrent writers behave like FileStore (last wins).
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  Clock
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configuring session database: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing session schema: %w", err)
	}

	return &SQLiteStore{db: conn, path: path, now: defaultClock}, nil
}

// WithClock sets the clock used for fresh records.
func (s *SQLiteStore) WithClock(c Clock) *SQLiteStore {
	if c != nil {
		s.now = c
	}
	return s
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(id string) (*State, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	var ts, contexts string
	err := s.db.QueryRow(`
		SELECT last_confirmed_at, confirmed_contexts FROM sessions WHERE id = ?
	`, id).Scan(&ts, &contexts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewState(s.now()), nil
		}
		return nil, fmt.Errorf("querying session %s: %w", id, err)
	}

	last, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w: last_confirmed_at: %v", id, ErrCorruptState, err)
	}
	var confirmed map[string]bool
	if err := decodeStrict([]byte(contexts), &confirmed); err != nil {
		return nil, fmt.Errorf("session %s: %w: confirmed_contexts: %v", id, ErrCorruptState, err)
	}
	if confirmed == nil {
		return nil, fmt.Errorf("session %s: %w: confirmed_contexts is null", id, ErrCorruptState)
	}

	return &State{LastConfirmedAt: last.UTC(), ConfirmedContexts: confirmed}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(id string, st *State) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("encoding session %s: state is nil", id)
	}

	contexts := st.ConfirmedContexts
	if contexts == nil {
		contexts = map[string]bool{}
	}
	encoded, err := json.Marshal(contexts)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, last_confirmed_at, confirmed_contexts, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_confirmed_at = excluded.last_confirmed_at,
			confirmed_contexts = excluded.confirmed_contexts,
			updated_at = excluded.updated_at
	`, id, st.LastConfirmedAt.UTC().Format(time.RFC3339Nano), string(encoded), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}
