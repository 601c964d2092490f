package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds all resolved trackd state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	TrackdHome  string // ~/.trackd or TRACKD_HOME
	ConfigPath  string // config.yaml or TRACKD_CONFIG
	CycleDBPath string // cycles.db or TRACKD_CYCLE_DB
	TasksPath   string // tasks.json or TRACKD_TASKS
}

// ResolvePaths returns all trackd paths, respecting env var overrides.
// Environment variables:
//   - TRACKD_HOME: base directory for all trackd state (default: ~/.trackd)
//   - TRACKD_CONFIG: config file (default: $TRACKD_HOME/config.yaml)
//   - TRACKD_CYCLE_DB: cycle history database (default: $TRACKD_HOME/cycles.db)
//   - TRACKD_TASKS: task queue file (default: $TRACKD_HOME/tasks.json)
//
// If TRACKD_HOME is set, it becomes the base for all default paths.
// Specific env vars (TRACKD_CONFIG, etc.) override both the default and TRACKD_HOME base.
func ResolvePaths() (*Paths, error) {
	trackdHome, err := resolveTrackdHome()
	if err != nil {
		return nil, err
	}

	paths := &Paths{
		TrackdHome:  trackdHome,
		ConfigPath:  resolvePathWithEnv("TRACKD_CONFIG", trackdHome, "config.yaml"),
		CycleDBPath: resolvePathWithEnv("TRACKD_CYCLE_DB", trackdHome, "cycles.db"),
		TasksPath:   resolvePathWithEnv("TRACKD_TASKS", trackdHome, "tasks.json"),
	}

	return paths, nil
}

// resolveTrackdHome returns the trackd home directory from TRACKD_HOME env var or ~/.trackd.
func resolveTrackdHome() (string, error) {
	if v := os.Getenv("TRACKD_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".trackd"), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}

// trackerDir returns the tracker repository directory for the given config
// value, defaulting to $TRACKD_HOME/tracker when the config leaves it blank.
func trackerDir(paths *Paths, configured string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(paths.TrackdHome, "tracker")
}
