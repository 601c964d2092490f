package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTranscript(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestDiscover verifies session files are found per agent directory and
// keyed as agent:stem, while missing directories are skipped.
func TestDiscover(t *testing.T) {
	root := t.TempDir()
	noxDir := filepath.Join(root, "nox", "sessions")
	writeTranscript(t, noxDir, "abc123.jsonl", "")
	writeTranscript(t, noxDir, "notes.txt", "")

	sessions := Discover([]SessionDir{
		{Agent: "nox", Dir: noxDir},
		{Agent: "sage", Dir: filepath.Join(root, "missing")},
	})

	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Key != "nox:abc123" || sessions[0].Agent != "nox" {
		t.Errorf("unexpected session: %+v", sessions[0])
	}
}

// TestShouldScan_MtimeShortCircuit verifies files not modified past the
// watermark are skipped without reading content.
func TestShouldScan_MtimeShortCircuit(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "s.jsonl", `{"timestamp":1}`)
	sess := Session{Agent: "nox", Key: "nox:s", Path: path}

	s := New()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	mtimeMS := info.ModTime().UnixMilli()

	if s.ShouldScan(sess, mtimeMS) {
		t.Error("expected skip when watermark equals mtime")
	}
	if !s.ShouldScan(sess, mtimeMS-1000) {
		t.Error("expected scan when file modified past watermark")
	}
}

// TestShouldScan_StaleFiles verifies stale files are scanned once for
// backfill (watermark 0) and then ignored forever.
func TestShouldScan_StaleFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "old.jsonl", `{"timestamp":1}`)
	old := time.Now().Add(-10 * 24 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	sess := Session{Agent: "nox", Key: "nox:old", Path: path}

	s := New()
	if !s.ShouldScan(sess, 0) {
		t.Error("expected backfill scan of stale file at initial watermark")
	}
	if s.ShouldScan(sess, 1) {
		t.Error("expected stale file to be skipped once watermark has moved")
	}
}

// TestScanTranscript_OutOfOrderLines verifies the watermark becomes the max
// timestamp seen while earlier lines still get consumed.
func TestScanTranscript_OutOfOrderLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"timestamp":1000,"role":"assistant","content":[{"type":"toolCall","name":"write","arguments":{"path":"/a/report.md"}}]}
{"timestamp":500,"role":"assistant","content":[{"type":"text","text":"hello"}]}
`
	path := writeTranscript(t, dir, "s.jsonl", content)
	sess := Session{Agent: "nox", Key: "nox:s", Path: path}

	events, newWM, stats, err := New().ScanTranscript(sess, 0)
	if err != nil {
		t.Fatalf("ScanTranscript failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if newWM != 1000 {
		t.Errorf("expected watermark 1000, got %d", newWM)
	}
	if stats.Lines != 2 || stats.Malformed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if events[0].Agent != "nox" || events[0].SessionKey != "nox:s" {
		t.Errorf("agent identity not assigned from owning directory: %+v", events[0])
	}
}

// TestScanTranscript_WatermarkFilter verifies events at or below the
// watermark are discarded and the watermark never regresses.
func TestScanTranscript_WatermarkFilter(t *testing.T) {
	dir := t.TempDir()
	content := `{"timestamp":100,"role":"assistant","content":[]}
{"timestamp":200,"role":"assistant","content":[]}
`
	path := writeTranscript(t, dir, "s.jsonl", content)
	sess := Session{Agent: "nox", Key: "nox:s", Path: path}

	events, newWM, stats, err := New().ScanTranscript(sess, 500)
	if err != nil {
		t.Fatalf("ScanTranscript failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events past watermark 500, got %d", len(events))
	}
	if newWM != 500 {
		t.Errorf("watermark regressed: got %d, want 500", newWM)
	}
	if stats.Stale != 2 {
		t.Errorf("expected 2 stale events, got %d", stats.Stale)
	}
}

// TestScanTranscript_MalformedLines verifies bad JSON skips that line only.
func TestScanTranscript_MalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := `not json at all
{"timestamp":300,"role":"assistant","content":[{"type":"text","text":"ok"}]}
{"broken":
{"role":"assistant","content":[]}
`
	path := writeTranscript(t, dir, "s.jsonl", content)
	sess := Session{Agent: "nox", Key: "nox:s", Path: path}

	events, newWM, stats, err := New().ScanTranscript(sess, 0)
	if err != nil {
		t.Fatalf("ScanTranscript failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if stats.Malformed != 2 {
		t.Errorf("expected 2 malformed lines, got %d", stats.Malformed)
	}
	if newWM != 300 {
		t.Errorf("expected watermark 300, got %d", newWM)
	}
}
