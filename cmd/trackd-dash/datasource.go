package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"trackd/pkg/activity"
	"trackd/pkg/config"
)

// Snapshot is the dashboard's view of tracker state.
type Snapshot struct {
	Tracker    string              `json:"tracker"`
	Activities []activity.Activity `json:"activities"`
	Total      int                 `json:"total"`
	CacheBust  string              `json:"cacheBust"`
}

// resolveTracker locates the tracker repo the same way the trackd CLI does:
// TRACKD_HOME (default ~/.trackd), config.yaml inside it, tracker_repo from
// the config or <home>/tracker.
func resolveTracker() (string, *config.Config, error) {
	home := os.Getenv("TRACKD_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", nil, fmt.Errorf("get home dir: %w", err)
		}
		home = filepath.Join(userHome, ".trackd")
	}

	configPath := os.Getenv("TRACKD_CONFIG")
	if configPath == "" {
		configPath = filepath.Join(home, "config.yaml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", nil, err
	}

	tracker := cfg.TrackerRepo
	if tracker == "" {
		tracker = filepath.Join(home, "tracker")
	}
	return tracker, cfg, nil
}

// fetchSnapshot loads the current store and metadata.
func fetchSnapshot() (*Snapshot, error) {
	tracker, _, err := resolveTracker()
	if err != nil {
		return nil, err
	}

	store := &activity.Store{Path: filepath.Join(tracker, "data", "activity-log.json")}
	entries, err := store.Load()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Tracker:    tracker,
		Activities: entries,
		Total:      len(entries),
		CacheBust:  readCacheBust(filepath.Join(tracker, "data", "meta.json")),
	}
	return snap, nil
}

// readCacheBust pulls the cache tag out of a metadata record; missing or
// malformed records read as empty.
func readCacheBust(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return ""
	}
	if tag, ok := record["cacheBust"].(string); ok {
		return tag
	}
	return ""
}

// robotMode outputs a JSON snapshot of tracker state for scripts.
func robotMode() ([]byte, error) {
	snap, err := fetchSnapshot()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}
