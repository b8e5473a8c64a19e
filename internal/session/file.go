package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per session in Dir.
// Format: <Dir>/kcwrap-<id>.json
type FileStore struct {
	dir string
	now Clock
}

// NewFileStore creates a store rooted at dir. An empty dir means os.TempDir().
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileStore{dir: dir, now: defaultClock}
}

// WithClock sets the clock used for fresh records.
func (f *FileStore) WithClock(c Clock) *FileStore {
	if c != nil {
		f.now = c
	}
	return f
}

// Dir returns the directory holding session files.
func (f *FileStore) Dir() string {
	return f.dir
}

// Path returns the file used for id.
func (f *FileStore) Path(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, fmt.Sprintf("kcwrap-%s.json", id)), nil
}

// Load implements Store.
func (f *FileStore) Load(id string) (*State, error) {
	path, err := f.Path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(f.now()), nil
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}

	st, err := decodeState(data)
	if err != nil {
		return nil, fmt.Errorf("loading session file %s: %w", path, err)
	}
	return st, nil
}

// Save implements Store. The file is rewritten in place.
func (f *FileStore) Save(id string, st *State) error {
	path, err := f.Path(id)
	if err != nil {
		return err
	}

	data, err := encodeState(st)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing session file %s: %w", path, err)
	}
	return nil
}
