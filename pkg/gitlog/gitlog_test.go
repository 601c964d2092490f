package gitlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trackd/pkg/watermark"
)

// TestClassifyWorkType covers the keyword table and the fallback.
func TestClassifyWorkType(t *testing.T) {
	cases := map[string]string{
		"Fix login race condition":      "bug_fix",
		"Add retry support":             "feature",
		"Update scraper throttling":     "improvement",
		"Research outlier thresholds":   "research",
		"README polish":                 "documentation",
		"Refactor queue internals":      "refactor",
		"bump version":                  "other",
	}
	for message, want := range cases {
		if got := classifyWorkType(message); got != want {
			t.Errorf("classifyWorkType(%q) = %q, want %q", message, got, want)
		}
	}
}

// TestDetectAgent verifies message-tag and author attribution with a
// default fallback.
func TestDetectAgent(t *testing.T) {
	s := New(nil)
	s.Agents = []string{"nox", "sage", "joy"}
	s.DefaultAgent = "nox"

	cases := []struct {
		commit Commit
		want   string
	}{
		{Commit{Message: "[sage] health check tuning", Author: "Steven"}, "sage"},
		{Commit{Message: "fix stuff", Author: "joy-bot"}, "joy"},
		{Commit{Message: "fix stuff", Author: "Steven"}, "nox"},
	}
	for _, tc := range cases {
		if got := s.detectAgent(tc.commit); got != tc.want {
			t.Errorf("detectAgent(%q/%q) = %q, want %q", tc.commit.Message, tc.commit.Author, got, tc.want)
		}
	}
}

// TestParseLog verifies field splitting and that malformed lines skip.
func TestParseLog(t *testing.T) {
	stdout := `abc1234567890|Steven|1700000000|Fix the thing
garbage line
def9876543210|nox-bot|1700000100|Add feature | with pipe
`
	commits := parseLog(stdout, "nox-dashboard")
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	if commits[0].TimestampMS != 1700000000000 {
		t.Errorf("expected millis conversion, got %d", commits[0].TimestampMS)
	}
	if commits[1].Message != "Add feature | with pipe" {
		t.Errorf("pipe in subject not preserved: %q", commits[1].Message)
	}
}

// TestScan_AdvancesCursorAndConverts verifies the scan converts new commits
// oldest-first, derives ids from hash prefixes, and advances the cursor to
// the newest commit timestamp.
func TestScan_AdvancesCursorAndConverts(t *testing.T) {
	repo := filepath.Join(t.TempDir(), "nox-dashboard")
	if err := os.MkdirAll(repo, 0o755); err != nil {
		t.Fatal(err)
	}

	s := New([]string{repo})
	s.Agents = []string{"nox"}
	s.runGit = func(_ context.Context, _ string, _ ...string) (string, error) {
		return `bbbbbbbbbbbb|nox|1700000200|[nox] Add widget
aaaaaaaaaaaa|nox|1700000100|Fix crash
`, nil
	}

	acts, cursors := s.Scan(context.Background(), watermark.Map{"repo:nox-dashboard": 1700000000000})

	if len(acts) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(acts))
	}
	if acts[0].ID != "auto-aaaaaaaa" || acts[1].ID != "auto-bbbbbbbb" {
		t.Errorf("expected oldest-first hash ids, got %q, %q", acts[0].ID, acts[1].ID)
	}
	if acts[0].Source != "git_commit" || acts[0].Repo != "nox-dashboard" {
		t.Errorf("unexpected activity: %+v", acts[0])
	}
	if cursors["repo:nox-dashboard"] != 1700000200000 {
		t.Errorf("expected cursor 1700000200000, got %d", cursors["repo:nox-dashboard"])
	}
}

// TestScan_NothingNewLeavesCursorAlone verifies commits at or below the
// cursor produce no activities and no cursor update.
func TestScan_NothingNewLeavesCursorAlone(t *testing.T) {
	repo := filepath.Join(t.TempDir(), "r")
	if err := os.MkdirAll(repo, 0o755); err != nil {
		t.Fatal(err)
	}

	s := New([]string{repo})
	s.runGit = func(_ context.Context, _ string, _ ...string) (string, error) {
		return "aaaaaaaaaaaa|x|1700000000|old news\n", nil
	}

	acts, cursors := s.Scan(context.Background(), watermark.Map{"repo:r": 1700000000000})
	if len(acts) != 0 {
		t.Errorf("expected no activities, got %d", len(acts))
	}
	if len(cursors) != 0 {
		t.Errorf("expected no cursor updates, got %v", cursors)
	}
}

// TestScan_MissingRepoSkipped verifies a vanished working copy never aborts
// the scan.
func TestScan_MissingRepoSkipped(t *testing.T) {
	s := New([]string{filepath.Join(t.TempDir(), "gone")})
	acts, cursors := s.Scan(context.Background(), watermark.Map{})
	if len(acts) != 0 || len(cursors) != 0 {
		t.Errorf("expected empty result for missing repo, got %v %v", acts, cursors)
	}
}
