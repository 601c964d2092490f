// Package pipeline runs one ingestion cycle: load watermarks, scan session
// transcripts, classify events, fold new activities into the canonical
// store, sync metadata, then persist watermarks. Watermarks are committed
// only after the merged store is durably saved, so a crash at any point
// leads to a safe re-scan; merge idempotence absorbs the duplicates.
//
// A pipeline is single-writer: callers must guarantee only one cycle runs
// at a time against the same tracker files.
package pipeline

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"trackd/pkg/activity"
	"trackd/pkg/classify"
	"trackd/pkg/config"
	"trackd/pkg/gitlog"
	"trackd/pkg/meta"
	"trackd/pkg/publish"
	"trackd/pkg/scanner"
	"trackd/pkg/watermark"
)

// Report is the user-visible outcome of one cycle.
type Report struct {
	StartedAt       time.Time
	Duration        time.Duration
	SessionsScanned int
	EventsSeen      int
	LinesMalformed  int
	ActivitiesFound int
	StoreSize       int
	CacheBust       string
	Published       bool
	PublishErr      error
}

// Pipeline wires the cycle's collaborators together. Git and Publisher are
// optional; nil disables commit scanning and the publish hook.
type Pipeline struct {
	Watermarks *watermark.Store
	Store      *activity.Store
	Meta       *meta.Synchronizer
	Scanner    *scanner.Scanner
	Sessions   []scanner.SessionDir
	Git        *gitlog.Scanner
	Publisher  *publish.Publisher

	Logf func(format string, args ...any)
}

// New assembles a pipeline from configuration rooted at the tracker repo.
func New(cfg *config.Config, trackerDir string) *Pipeline {
	sc := scanner.New()
	sc.Staleness = cfg.Staleness()

	var dirs []scanner.SessionDir
	for _, a := range cfg.SessionDirs() {
		dirs = append(dirs, scanner.SessionDir{Agent: a.Name, Dir: a.Sessions})
	}

	var git *gitlog.Scanner
	if len(cfg.Repos) > 0 {
		git = gitlog.New(cfg.Repos)
		git.ProjectNames = cfg.ProjectNames
		for agent := range cfg.Roster {
			git.Agents = append(git.Agents, agent)
		}
	}

	var pub *publish.Publisher
	if cfg.Push {
		pub = publish.New(trackerDir, cfg.Remote, cfg.Branch)
	}

	return &Pipeline{
		Watermarks: &watermark.Store{Path: filepath.Join(trackerDir, ".watermarks.json")},
		Store:      &activity.Store{Path: filepath.Join(trackerDir, "data", "activity-log.json")},
		Meta:       meta.New(filepath.Join(trackerDir, "data", "meta.json"), filepath.Join(trackerDir, "meta.json")),
		Scanner:    sc,
		Sessions:   dirs,
		Git:        git,
		Publisher:  pub,
	}
}

// RunCycle executes one full cycle and returns its report. Only unreadable
// canonical state (store, watermark file) is fatal; per-session and
// per-repo trouble is logged and skipped.
func (p *Pipeline) RunCycle(ctx context.Context) (*Report, error) {
	logf := p.Logf
	if logf == nil {
		logf = log.Printf
	}
	report := &Report{StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	marks, err := p.Watermarks.Load()
	if err != nil {
		return report, err
	}
	existing, err := p.Store.Load()
	if err != nil {
		return report, err
	}

	var (
		incoming   []activity.Activity
		advanced   = watermark.Map{}
		classifier = classify.New()
	)

	for _, sess := range scanner.Discover(p.Sessions) {
		if ctx.Err() != nil {
			// Interrupted between sessions: merge what we have; the
			// untouched sessions keep their old watermarks.
			break
		}
		wm := marks[sess.Key]
		if !p.Scanner.ShouldScan(sess, wm) {
			continue
		}

		events, newWM, stats, err := p.Scanner.ScanTranscript(sess, wm)
		if err != nil {
			// Leave the watermark alone so the next cycle re-scans.
			logf("scan %s: %v", sess.Key, err)
			continue
		}
		report.SessionsScanned++
		report.EventsSeen += len(events)
		report.LinesMalformed += stats.Malformed

		for _, ev := range events {
			incoming = append(incoming, classifier.Event(ev)...)
		}
		if newWM > wm {
			advanced[sess.Key] = newWM
		}
	}

	if p.Git != nil {
		commits, cursors := p.Git.Scan(ctx, marks)
		incoming = append(incoming, commits...)
		for key, val := range cursors {
			advanced[key] = val
		}
	}

	report.ActivitiesFound = len(incoming)

	merged := activity.Merge(existing, incoming)
	report.StoreSize = len(merged)

	if err := p.Store.Save(merged); err != nil {
		return report, err
	}
	tag, err := p.Meta.Sync(len(merged))
	if err != nil {
		return report, err
	}
	report.CacheBust = tag

	// Store and metadata are durable; now the watermarks may advance.
	for key, val := range advanced {
		if val > marks[key] {
			marks[key] = val
		}
	}
	if err := p.Watermarks.Save(marks); err != nil {
		return report, err
	}

	if p.Publisher != nil && len(incoming) > 0 {
		if err := p.Publisher.Publish(ctx, len(incoming)); err != nil {
			// Best-effort: the next cycle publishes a larger delta.
			logf("%v", err)
			report.PublishErr = err
		} else {
			report.Published = true
		}
	}

	return report, nil
}
