package activity

import (
	"os"
	"path/filepath"
	"testing"
)

// TestStore_MissingFileIsEmpty verifies a first run against a missing file
// loads as an empty store.
func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "data", "activity-log.json")}

	entries, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty store, got %d entries", len(entries))
	}
}

// TestStore_RoundTrip verifies save-then-load preserves entries.
func TestStore_RoundTrip(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "activity-log.json")}

	in := []Activity{
		{ID: "auto-abc12345", TimestampMS: 1700000000000, Agent: "nox", Type: "feature", Description: "Added thing", Source: "git_commit"},
		{ID: "session-nox:s1-1700000001000-0", TimestampMS: 1700000001000, Agent: "nox", Type: "file_write", Description: "Created/updated file: report.md", Source: "session_monitor"},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].ID != "auto-abc12345" || out[1].Type != "file_write" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

// TestStore_LegacyBareArray verifies the legacy bare-list artifact shape
// loads without error.
func TestStore_LegacyBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-log.json")
	legacy := `[{"id":"a1","timestamp":"2024-01-15T10:00:00Z","agent":"sage","type":"research","description":"x","source":"session_monitor"}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &Store{Path: path}
	entries, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	// Numeric timestamp is backfilled from the ISO string.
	if entries[0].TimestampMS != 1705312800000 {
		t.Errorf("expected backfilled millis 1705312800000, got %d", entries[0].TimestampMS)
	}
}

// TestStore_CorruptFileErrors verifies unreadable JSON is reported as an
// error rather than silently treated as empty.
func TestStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-log.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &Store{Path: path}
	if _, err := s.Load(); err == nil {
		t.Error("expected error for corrupt store file")
	}
}
