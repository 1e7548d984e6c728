// internal/history/history.go
//
// Bounded history of recently used screenshots.
// This is the only state that survives a restart.
//
// Characteristics:
//   - Oldest-first list, never longer than its capacity.
//   - Persisted after every mutation as {"history": [...]} with an atomic
//     write-to-temp-then-rename, so a crash loses at most the last entry.
//   - A missing or unreadable file is not fatal: the bot starts with an empty history.
//   - Concurrency-safe via RWMutex (the status server reads it).

package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultSize is the number of rounds before the same screenshot may be used again.
	DefaultSize = 50

	// DefaultPath is where the history document lives.
	DefaultPath = "state.json"
)

type document struct {
	History []string `json:"history"`
}

// Store is the durable round history.
type Store struct {
	mu       sync.RWMutex
	path     string
	capacity int
	entries  []string
}

// New returns an empty history persisted at path.
func New(path string, capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{path: path, capacity: capacity}
}

// Capacity returns the maximum number of entries.
func (s *Store) Capacity() int { return s.capacity }

// Load restores the history from disk. It never fails: problems are logged and
// the history is left empty.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	raw, err := os.ReadFile(s.path)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("unable to read history, using clean state")
		return
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("corrupt history, using clean state")
		return
	}
	s.entries = doc.History
	s.trimLocked()
	log.Info().Int("entries", len(s.entries)).Str("path", s.path).Msg("history loaded")
}

// Contains reports whether ref was used recently.
func (s *Store) Contains(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e == ref {
			return true
		}
	}
	return false
}

// Record appends ref, evicts the oldest entries beyond capacity and persists.
func (s *Store) Record(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, ref)
	s.trimLocked()
	return s.saveLocked()
}

// Entries returns a copy, oldest first.
func (s *Store) Entries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) trimLocked() {
	if over := len(s.entries) - s.capacity; over > 0 {
		s.entries = append([]string(nil), s.entries[over:]...)
	}
}

func (s *Store) saveLocked() error {
	entries := s.entries
	if entries == nil {
		entries = []string{}
	}
	data, err := json.Marshal(document{History: entries})
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace history: %w", err)
	}
	log.Debug().Int("entries", len(s.entries)).Msg("history saved")
	return nil
}
