// Package publish hands the updated tracker repository to version control
// after a successful merge: stage, commit with a batch summary, push. The
// hook is best-effort; a failure here is surfaced but never rolls back the
// already-committed store, metadata, or watermark state.
package publish

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Error reports which git step failed, with the command output for the
// operator. It enables typed discrimination from other cycle failures.
type Error struct {
	Step   string
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("publish: git %s failed: %v: %s", e.Step, e.Err, strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("publish: git %s failed: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Publisher pushes the tracker repository to its remote.
type Publisher struct {
	RepoDir string
	Remote  string
	Branch  string
	Timeout time.Duration

	// runGit is swapped in tests.
	runGit func(ctx context.Context, args ...string) (string, error)
}

// New returns a Publisher for the tracker repo.
func New(repoDir, remote, branch string) *Publisher {
	p := &Publisher{
		RepoDir: repoDir,
		Remote:  remote,
		Branch:  branch,
		Timeout: 30 * time.Second,
	}
	p.runGit = p.execGit
	return p
}

// CommitMessage summarizes one published batch.
func CommitMessage(batchSize int) string {
	return fmt.Sprintf("[auto-tracker] Logged %d activities", batchSize)
}

// Publish stages and pushes the tracker repo. A clean working tree is a
// no-op, not an error.
func (p *Publisher) Publish(ctx context.Context, batchSize int) error {
	status, err := p.runGit(ctx, "status", "--porcelain")
	if err != nil {
		return &Error{Step: "status", Output: status, Err: err}
	}
	if strings.TrimSpace(status) == "" {
		return nil
	}

	if out, err := p.runGit(ctx, "add", "."); err != nil {
		return &Error{Step: "add", Output: out, Err: err}
	}
	if out, err := p.runGit(ctx, "commit", "-m", CommitMessage(batchSize)); err != nil {
		return &Error{Step: "commit", Output: out, Err: err}
	}
	if out, err := p.runGit(ctx, "push", p.Remote, p.Branch); err != nil {
		return &Error{Step: "push", Output: out, Err: err}
	}
	return nil
}

func (p *Publisher) execGit(ctx context.Context, args ...string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", p.RepoDir}, args...)...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
