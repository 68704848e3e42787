package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/logtower/pkg/cache"
)

// DefaultStateTTL is how long a saved browser state is restored.
const DefaultStateTTL = 30 * 24 * time.Hour

// State is the part of a session worth restoring: what the user selected,
// not what the graph looks like.
type State struct {
	Source    string    `json:"source"`
	View      ViewMode  `json:"view"`
	Branches  []string  `json:"branches,omitempty"`
	Filter    string    `json:"filter,omitempty"`
	Priority  []string  `json:"priority,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired returns true if the state has expired.
func (s *State) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Capture records the selection of s for source.
func Capture(source string, s *Session, ttl time.Duration) *State {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	now := time.Now()
	return &State{
		Source:    source,
		View:      s.Mode(),
		Branches:  s.SelectedBranches(),
		Filter:    s.Filter(),
		Priority:  s.Priority(),
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}
}

// Options returns session options that reopen the saved selection.
func (s *State) Options() Options {
	return Options{View: s.View, Branches: s.Branches, Filter: s.Filter, Priority: s.Priority}
}

// FileStore keeps one [State] per source as a JSON file.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based state store.
// If baseDir is empty, defaults to ~/.config/logtower/state/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "logtower", "state")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) statePath(source string) string {
	return filepath.Join(s.baseDir, cache.Hash([]byte(source))[:16]+".json")
}

// Get returns the saved state for source, or nil, nil when there is none or
// it expired.
func (s *FileStore) Get(ctx context.Context, source string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.statePath(source)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if st.IsExpired() || st.Source != source {
		return nil, nil
	}
	return &st, nil
}

// Set saves st under its source.
func (s *FileStore) Set(ctx context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(s.statePath(st.Source), data, 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Delete removes the state of source.
func (s *FileStore) Delete(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.statePath(source)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// Cleanup removes expired and unreadable state files.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read state dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil || now.After(st.ExpiresAt) {
			os.Remove(path)
		}
	}
	return nil
}

// Path returns the base directory for state files.
func (s *FileStore) Path() string {
	return s.baseDir
}
