package plex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// TokenStore abstracts persistence for Plex authentication state.
type TokenStore interface {
	Load() (tokenState, error)
	Save(tokenState) error
}

// FileTokenStore writes token state to a JSON file on disk. Reads take a shared
// lock and writes an exclusive lock on a sibling ".lock" file, so concurrent
// tv-shows processes never observe a half-written state.
type FileTokenStore struct {
	path string
	lock *flock.Flock
}

// NewFileTokenStore builds a FileTokenStore rooted at the provided path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the state file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads token state from disk. A missing file resolves to an empty state.
func (s *FileTokenStore) Load() (tokenState, error) {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return tokenState{}, nil
	}
	if err := s.lock.RLock(); err != nil {
		return tokenState{}, fmt.Errorf("lock plex auth state: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tokenState{}, nil
		}
		return tokenState{}, fmt.Errorf("read plex auth state: %w", err)
	}

	var state tokenState
	if err := json.Unmarshal(data, &state); err != nil {
		return tokenState{}, fmt.Errorf("decode plex auth state: %w", err)
	}
	return state, nil
}

// Save persists token state to disk with restricted permissions.
func (s *FileTokenStore) Save(state tokenState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure auth state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plex auth state: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock plex auth state: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".plex_auth.*.tmp")
	if err != nil {
		return fmt.Errorf("write plex auth state: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write plex auth state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod plex auth state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write plex auth state: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write plex auth state: %w", err)
	}
	return nil
}
