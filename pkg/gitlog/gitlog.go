// Package gitlog scans monitored git repositories for new commits and
// converts them to activities. Commits are work that happened outside any
// session transcript.
package gitlog

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trackd/pkg/activity"
	"trackd/pkg/watermark"
)

// cursorPrefix namespaces repo cursors inside the shared watermark file,
// keeping them out of the session keyspace.
const cursorPrefix = "repo:"

// firstRunLimit bounds the backfill on a repo's first scan.
const firstRunLimit = 10

// Commit is one parsed git log line.
type Commit struct {
	Hash        string
	Author      string
	Message     string
	Repo        string
	TimestampMS int64
}

// Scanner reads new commits from a set of git working copies. Each repo's
// cursor is the committer timestamp of the newest commit already converted.
type Scanner struct {
	Repos        []string
	Agents       []string          // agent names detected in messages/authors
	DefaultAgent string            // attribution when no agent tag matches
	ProjectNames map[string]string // repo dir name → project override
	Timeout      time.Duration

	// runGit is swapped in tests.
	runGit func(ctx context.Context, repo string, args ...string) (string, error)
}

// New returns a Scanner over repos.
func New(repos []string) *Scanner {
	s := &Scanner{
		Repos:        repos,
		DefaultAgent: "main",
		Timeout:      5 * time.Second,
	}
	s.runGit = s.execGit
	return s
}

// Scan converts commits newer than each repo's cursor into activities and
// returns the advanced cursors. Repos that are missing or fail git calls
// are skipped; a broken repo never aborts the cycle.
func (s *Scanner) Scan(ctx context.Context, cursors watermark.Map) ([]activity.Activity, watermark.Map) {
	updated := watermark.Map{}
	var out []activity.Activity

	for _, repo := range s.Repos {
		if _, err := os.Stat(repo); err != nil {
			continue
		}
		name := filepath.Base(repo)
		cursor := cursors[cursorPrefix+name]

		commits, err := s.log(ctx, repo, cursor)
		if err != nil {
			continue
		}

		maxTS := cursor
		// git log is newest-first; convert oldest-first so merge order
		// matches history order.
		for i := len(commits) - 1; i >= 0; i-- {
			c := commits[i]
			if c.TimestampMS <= cursor {
				continue
			}
			if c.TimestampMS > maxTS {
				maxTS = c.TimestampMS
			}
			out = append(out, s.commitToActivity(c))
		}
		if maxTS > cursor {
			updated[cursorPrefix+name] = maxTS
		}
	}
	return out, updated
}

// log fetches commits for one repo. A zero cursor means first sighting:
// only a bounded backfill is taken.
func (s *Scanner) log(ctx context.Context, repo string, cursor int64) ([]Commit, error) {
	args := []string{"log", "--format=%H|%an|%at|%s", "--no-merges"}
	if cursor == 0 {
		args = append(args, fmt.Sprintf("-%d", firstRunLimit))
	} else {
		args = append(args, "--since="+strconv.FormatInt(cursor/1000+1, 10))
	}

	stdout, err := s.runGit(ctx, repo, args...)
	if err != nil {
		return nil, err
	}
	return parseLog(stdout, filepath.Base(repo)), nil
}

// parseLog parses `git log --format=%H|%an|%at|%s` output. Lines that do
// not split into four fields are skipped.
func parseLog(stdout, repoName string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		secs, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		commits = append(commits, Commit{
			Hash:        parts[0],
			Author:      parts[1],
			TimestampMS: secs * 1000,
			Message:     parts[3],
			Repo:        repoName,
		})
	}
	return commits
}

// commitToActivity builds the activity record for one commit. The id is the
// commit hash prefix, so re-scanning the same history is idempotent under
// merge.
func (s *Scanner) commitToActivity(c Commit) activity.Activity {
	hash8 := c.Hash
	if len(hash8) > 8 {
		hash8 = hash8[:8]
	}
	return activity.Activity{
		ID:          "auto-" + hash8,
		Timestamp:   activity.FormatTimestamp(c.TimestampMS),
		TimestampMS: c.TimestampMS,
		Agent:       s.detectAgent(c),
		Type:        classifyWorkType(c.Message),
		Project:     s.projectName(c.Repo),
		Description: c.Message,
		Source:      "git_commit",
		Repo:        c.Repo,
		CommitHash:  hash8,
	}
}

// detectAgent attributes a commit by message tag ("[nox]") or author name.
func (s *Scanner) detectAgent(c Commit) string {
	message := strings.ToLower(c.Message)
	author := strings.ToLower(c.Author)
	for _, agent := range s.Agents {
		a := strings.ToLower(agent)
		if strings.Contains(message, "["+a+"]") || strings.Contains(author, a) {
			return a
		}
	}
	if s.DefaultAgent != "" {
		return s.DefaultAgent
	}
	return "main"
}

// workTypeRules classify a commit message by keyword, first match wins.
var workTypeRules = []struct {
	workType string
	keywords []string
}{
	{"bug_fix", []string{"fix", "bug", "error", "issue"}},
	{"feature", []string{"feature", "add", "new", "implement"}},
	{"improvement", []string{"update", "improve", "enhance", "optimize"}},
	{"research", []string{"research", "analysis", "intel", "data"}},
	{"documentation", []string{"doc", "readme", "guide"}},
	{"refactor", []string{"refactor", "clean", "reorg"}},
}

func classifyWorkType(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range workTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.workType
			}
		}
	}
	return "other"
}

func (s *Scanner) execGit(ctx context.Context, repo string, args ...string) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repo}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}
