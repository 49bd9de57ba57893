// Package persist implements the durable session snapshot on the local
// filesystem.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voltlab/smartcharge/core/logger"
	corepersist "github.com/voltlab/smartcharge/core/persist"
)

// FileStore keeps the snapshot in a small JSON file. Saves go through a
// temp file plus rename so a crash never leaves a half-written snapshot.
type FileStore struct {
	path string
	log  logger.Logger
}

func NewFileStore(path string, log logger.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load reads the snapshot. A missing or corrupt file falls back to
// defaults instead of failing startup; missing fields are defaulted
// individually.
func (s *FileStore) Load() (corepersist.Record, error) {
	defaults := corepersist.Defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Infof("snapshot %s not found, using defaults", s.path)
		} else {
			s.log.Warnf("read snapshot %s: %v, using defaults", s.path, err)
		}
		return defaults, nil
	}
	var rec corepersist.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warnf("decode snapshot %s: %v, using defaults", s.path, err)
		return defaults, nil
	}
	if rec.Active == "" {
		rec.Active = defaults.Active
	}
	if rec.Status == "" {
		rec.Status = defaults.Status
	}
	return rec, nil
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(rec corepersist.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
