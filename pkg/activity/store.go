package activity

import (
	"encoding/json"
	"fmt"
	"os"

	"trackd/internal/atomicfile"
)

// Store reads and writes the canonical activity log artifact. The on-disk
// shape is {"entries": [...]}; a legacy bare array is accepted on load and
// upgraded on the next save. A missing file means an empty store, not an
// error.
type Store struct {
	Path string
}

// storeFile is the canonical on-disk envelope.
type storeFile struct {
	Entries []Activity `json:"entries"`
}

// Load returns the store contents. Legacy entries missing the numeric
// timestamp get it backfilled from the ISO string.
func (s *Store) Load() ([]Activity, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read activity store: %w", err)
	}

	var envelope storeFile
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Entries != nil {
		return normalizeAll(envelope.Entries), nil
	}

	// Legacy shape: bare array of activities.
	var entries []Activity
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse activity store %s: %w", s.Path, err)
	}
	return normalizeAll(entries), nil
}

// Save persists entries atomically so a crash mid-write leaves the previous
// store intact.
func (s *Store) Save(entries []Activity) error {
	if entries == nil {
		entries = []Activity{}
	}
	data, err := json.MarshalIndent(storeFile{Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal activity store: %w", err)
	}
	if err := atomicfile.WriteFile(s.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save activity store: %w", err)
	}
	return nil
}

func normalizeAll(entries []Activity) []Activity {
	for i := range entries {
		entries[i].normalize()
	}
	return entries
}
