package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"trackd/pkg/activity"
)

func TestFetchSnapshot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TRACKD_HOME", home)
	t.Setenv("TRACKD_CONFIG", "")

	tracker := filepath.Join(home, "tracker")
	store := &activity.Store{Path: filepath.Join(tracker, "data", "activity-log.json")}
	if err := store.Save([]activity.Activity{
		{ID: "x", TimestampMS: 1000, Agent: "nox", Type: "file_write"},
	}); err != nil {
		t.Fatal(err)
	}
	metaRecord := `{"totalActivities":1,"cacheBust":"v0042"}`
	if err := os.WriteFile(filepath.Join(tracker, "data", "meta.json"), []byte(metaRecord), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := fetchSnapshot()
	if err != nil {
		t.Fatalf("fetchSnapshot() error: %v", err)
	}
	if snap.Total != 1 {
		t.Errorf("Total = %d, want 1", snap.Total)
	}
	if snap.CacheBust != "v0042" {
		t.Errorf("CacheBust = %q, want v0042", snap.CacheBust)
	}
}

func TestFetchSnapshot_EmptyTracker(t *testing.T) {
	t.Setenv("TRACKD_HOME", t.TempDir())
	t.Setenv("TRACKD_CONFIG", "")

	snap, err := fetchSnapshot()
	if err != nil {
		t.Fatalf("fetchSnapshot() error: %v", err)
	}
	if snap.Total != 0 || snap.CacheBust != "" {
		t.Errorf("empty tracker snapshot = %+v, want zero values", snap)
	}
}

func TestRobotMode(t *testing.T) {
	t.Setenv("TRACKD_HOME", t.TempDir())
	t.Setenv("TRACKD_CONFIG", "")

	data, err := robotMode()
	if err != nil {
		t.Fatalf("robotMode() error: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("robot output is not valid JSON: %v", err)
	}
}
