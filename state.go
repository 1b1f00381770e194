package govwatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// SiteState holds the persisted diff marker for one site. Which field is
// meaningful depends on the site's strategy: track_all maintains SeenURLs,
// track_latest maintains LastSeenURL.
type SiteState struct {
	SeenURLs    []string `json:"seen_urls,omitempty"`
	LastSeenURL string   `json:"last_seen_url,omitempty"`
}

// State maps site IDs to their persisted state. It is loaded fully into
// memory at the start of a run and rewritten wholesale at the end.
type State map[string]*SiteState

// StateStore reads and writes the watcher state as a single JSON file.
type StateStore struct {
	path string
}

// NewStateStore creates a state store backed by the given file path. The
// file doesn't need to exist yet.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the persisted state. A missing or unreadable or corrupt file
// yields an empty state, never an error: losing the diff markers means a
// noisy next run, not a broken one.
func (s *StateStore) Load() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("Error loading %s: %v", s.path, err)
		}
		return State{}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Errorf("JSON decode error in %s: %v", s.path, err)
		return State{}
	}
	if state == nil {
		return State{}
	}
	return state
}

// Save writes the state atomically: the JSON is written to a temp file in
// the same directory and then renamed over the real path, so a crash
// mid-write can never leave a truncated state file behind.
func (s *StateStore) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic writes data to path via a temp-file-then-rename sequence.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
