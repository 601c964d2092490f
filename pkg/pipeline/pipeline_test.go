package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trackd/pkg/activity"
	"trackd/pkg/config"
	"trackd/pkg/watermark"
)

// fixture builds a tracker dir and one agent session dir with a transcript.
func fixture(t *testing.T, transcript string) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	tracker := filepath.Join(root, "tracker")
	sessions := filepath.Join(root, "agents", "nox", "sessions")
	if err := os.MkdirAll(sessions, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sessions, "s1.jsonl"), []byte(transcript), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Agents = []config.AgentDir{{Name: "nox", Sessions: sessions}}
	p := New(cfg, tracker)
	p.Logf = t.Logf
	return p, filepath.Join(sessions, "s1.jsonl")
}

const transcript = `{"timestamp":1000,"role":"assistant","content":[{"type":"toolCall","name":"write","arguments":{"path":"/a/report.md"}}]}
{"timestamp":500,"role":"assistant","content":[{"type":"toolCall","name":"exec","arguments":{"command":"ls"}}]}
{"timestamp":2000,"role":"assistant","content":[{"type":"toolCall","name":"web_search","arguments":{"query":"dragon outliers"}}]}
`

// TestRunCycle_EndToEnd verifies a full cycle classifies, merges, writes
// metadata, and advances watermarks.
func TestRunCycle_EndToEnd(t *testing.T) {
	p, _ := fixture(t, transcript)

	report, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if report.SessionsScanned != 1 {
		t.Errorf("expected 1 session scanned, got %d", report.SessionsScanned)
	}
	if report.ActivitiesFound != 2 {
		t.Errorf("expected 2 activities (trivial ls filtered), got %d", report.ActivitiesFound)
	}
	if report.StoreSize != 2 {
		t.Errorf("expected store size 2, got %d", report.StoreSize)
	}
	if report.CacheBust == "" {
		t.Error("expected a cacheBust tag")
	}

	entries, err := p.Store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].TimestampMS > entries[1].TimestampMS {
		t.Error("store not sorted ascending")
	}

	marks, err := p.Watermarks.Load()
	if err != nil {
		t.Fatal(err)
	}
	if marks["nox:s1"] != 2000 {
		t.Errorf("expected watermark 2000, got %d", marks["nox:s1"])
	}
}

// TestRunCycle_SecondCycleIsQuiet verifies watermark monotonicity: a second
// cycle over unchanged sessions re-classifies nothing.
func TestRunCycle_SecondCycleIsQuiet(t *testing.T) {
	p, _ := fixture(t, transcript)
	ctx := context.Background()

	if _, err := p.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := p.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.ActivitiesFound != 0 {
		t.Errorf("expected no new activities on second cycle, got %d", second.ActivitiesFound)
	}
	if second.StoreSize != 2 {
		t.Errorf("store size changed: %d", second.StoreSize)
	}
}

// TestRunCycle_CrashBeforeWatermarkIsSafe verifies that losing the
// watermark advance (crash between merge and watermark save) cannot
// double-count: the re-scan merges idempotently.
func TestRunCycle_CrashBeforeWatermarkIsSafe(t *testing.T) {
	p, _ := fixture(t, transcript)
	ctx := context.Background()

	if _, err := p.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	// Simulate the crash: watermarks never made it to disk.
	if err := os.Remove(p.Watermarks.Path); err != nil {
		t.Fatal(err)
	}

	report, err := p.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.StoreSize != 2 {
		t.Errorf("expected store size still 2 after re-scan, got %d", report.StoreSize)
	}
}

// TestRunCycle_AppendedLinesOnly verifies an appended event is picked up
// while older events stay consumed.
func TestRunCycle_AppendedLinesOnly(t *testing.T) {
	p, path := fixture(t, transcript)
	ctx := context.Background()

	if _, err := p.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	line := `{"timestamp":3000,"role":"assistant","content":[{"type":"toolCall","name":"edit","arguments":{"path":"/b/notes.md"}}]}` + "\n"
	if _, err := f.WriteString(line); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	report, err := p.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.ActivitiesFound != 1 {
		t.Errorf("expected exactly the appended activity, got %d", report.ActivitiesFound)
	}

	marks, err := p.Watermarks.Load()
	if err != nil {
		t.Fatal(err)
	}
	if marks["nox:s1"] != 3000 {
		t.Errorf("expected watermark 3000, got %d", marks["nox:s1"])
	}
}

// TestRunCycle_LegacyProcessedSessionSkipped verifies legacy fully-processed
// watermarks suppress scanning entirely.
func TestRunCycle_LegacyProcessedSessionSkipped(t *testing.T) {
	p, _ := fixture(t, transcript)
	ctx := context.Background()

	if err := p.Watermarks.Save(watermark.Map{"nox:s1": watermark.Processed}); err != nil {
		t.Fatal(err)
	}

	report, err := p.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.SessionsScanned != 0 || report.ActivitiesFound != 0 {
		t.Errorf("expected fully-processed session skipped, got %+v", report)
	}
}

// TestRunCycle_ManualEntriesSurviveMerge verifies pre-existing store entries
// with foreign ids are preserved through cycles.
func TestRunCycle_ManualEntriesSurviveMerge(t *testing.T) {
	p, _ := fixture(t, transcript)
	ctx := context.Background()

	manual := activity.Activity{
		ID: "manual-123", TimestampMS: 1500,
		Timestamp: activity.FormatTimestamp(1500),
		Agent:     "nox", Type: "research", Description: "hand logged", Source: "manual",
	}
	if err := p.Store.Save([]activity.Activity{manual}); err != nil {
		t.Fatal(err)
	}

	report, err := p.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.StoreSize != 3 {
		t.Errorf("expected 3 entries (manual + 2 scanned), got %d", report.StoreSize)
	}

	entries, err := p.Store.Load()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, e := range entries {
		if e.ID == "manual-123" {
			found = true
		}
	}
	if !found {
		t.Error("manual entry lost in merge")
	}
}
