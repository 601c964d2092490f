package scanner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultStaleness is how old a session file may be before it stops being
// scanned. Stale files are still scanned once for backfill while their
// watermark is at its initial value.
const DefaultStaleness = 7 * 24 * time.Hour

// SessionDir names one agent's session directory.
type SessionDir struct {
	Agent string
	Dir   string
}

// Session is one discovered transcript file. Key is the watermark key for
// the session ("agent:stem").
type Session struct {
	Agent string
	Key   string
	Path  string
}

// FileStats reports coarse per-file scan outcomes for cycle reporting.
type FileStats struct {
	Lines     int // lines read
	Malformed int // lines skipped as unparsable
	Stale     int // events discarded at or below the watermark
}

// Scanner reads session transcripts incrementally. The zero value is not
// usable; call New.
type Scanner struct {
	Staleness time.Duration
	Now       func() time.Time
}

// New returns a Scanner with the default staleness threshold.
func New() *Scanner {
	return &Scanner{Staleness: DefaultStaleness, Now: time.Now}
}

// Discover lists the .jsonl session files under each agent directory.
// Missing directories are treated as empty, not errors: the pipeline never
// creates sessions, only reads the ones the filesystem owns.
func Discover(dirs []SessionDir) []Session {
	var sessions []Session
	for _, d := range dirs {
		entries, err := os.ReadDir(d.Dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
				continue
			}
			stem := strings.TrimSuffix(name, ".jsonl")
			sessions = append(sessions, Session{
				Agent: d.Agent,
				Key:   d.Agent + ":" + stem,
				Path:  filepath.Join(d.Dir, name),
			})
		}
	}
	return sessions
}

// ShouldScan applies the cheap file-level short circuits before any content
// is read: skip when the file has not been modified past the watermark, and
// skip files past the staleness threshold once they have been scanned at
// least once (watermark moved off 0).
func (s *Scanner) ShouldScan(sess Session, wm int64) bool {
	info, err := os.Stat(sess.Path)
	if err != nil {
		return false
	}
	if info.ModTime().UnixMilli() <= wm {
		return false
	}
	if s.Now().Sub(info.ModTime()) > s.Staleness && wm > 0 {
		return false
	}
	return true
}

// ScanTranscript reads the session file line by line and returns the events
// with normalized timestamp strictly above wm, plus the new watermark (the
// maximum timestamp seen, never below wm). Each line parses independently;
// a malformed line skips that line only.
func (s *Scanner) ScanTranscript(sess Session, wm int64) ([]Event, int64, FileStats, error) {
	f, err := os.Open(sess.Path)
	if err != nil {
		return nil, wm, FileStats{}, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	// Tool outputs can make individual lines large.
	sc.Buffer(make([]byte, 0, 256*1024), 10*1024*1024)

	var (
		events []Event
		stats  FileStats
		maxTS  = wm
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		var raw rawLine
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			stats.Malformed++
			continue
		}

		ts := normalizeTimestamp(raw.Timestamp)
		if ts <= wm {
			stats.Stale++
			continue
		}
		if ts > maxTS {
			maxTS = ts
		}

		events = append(events, Event{
			TimestampMS: ts,
			Role:        raw.Role,
			Agent:       sess.Agent,
			SessionKey:  sess.Key,
			Content:     raw.Content,
		})
	}

	if err := sc.Err(); err != nil {
		// The file itself is unreadable past this point; report what we
		// have so the watermark still never regresses.
		return events, maxTS, stats, fmt.Errorf("scan transcript %s: %w", sess.Path, err)
	}
	return events, maxTS, stats, nil
}
