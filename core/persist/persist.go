// Package persist defines the small state snapshot that survives restarts.
package persist

import "sync"

// Record is the durable subset of the session: the user enable flag and
// the last published status.
type Record struct {
	Active string `json:"active"`
	Status string `json:"status"`
}

// Defaults returns the record substituted when no snapshot exists.
func Defaults() Record {
	return Record{Active: "on", Status: "unknown"}
}

// Store loads and saves the snapshot.
type Store interface {
	// Load returns the stored record. Implementations fall back to
	// Defaults when the snapshot is missing or unreadable.
	Load() (Record, error)
	Save(Record) error
}

// MemoryStore keeps the record in memory, used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	rec   Record
	saved bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return Defaults(), nil
	}
	return s.rec, nil
}

func (s *MemoryStore) Save(r Record) error {
	s.mu.Lock()
	s.rec, s.saved = r, true
	s.mu.Unlock()
	return nil
}
