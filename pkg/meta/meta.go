// Package meta keeps the redundant metadata records (data/meta.json and the
// root meta.json) in lockstep with the canonical activity store. Counts are
// always recomputed from the store, never incremented in place, so the
// records cannot drift.
package meta

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"trackd/internal/atomicfile"
)

// Record is one metadata document. Unknown fields written by other tools are
// preserved across syncs.
type Record map[string]any

// Synchronizer rewrites every redundant metadata copy after a merge.
type Synchronizer struct {
	Paths []string
	Now   func() time.Time
}

// New returns a Synchronizer over the given record paths.
func New(paths ...string) *Synchronizer {
	return &Synchronizer{Paths: paths, Now: time.Now}
}

// Sync recomputes totalActivities as the true store length, stamps
// lastUpdated, and bumps cacheBust once, copying the bumped tag to every
// record so the copies stay in version lockstep. Returns the new tag.
func (s *Synchronizer) Sync(totalActivities int) (string, error) {
	now := s.Now().UTC()
	records := make([]Record, len(s.Paths))
	for i, path := range s.Paths {
		records[i] = loadRecord(path)
	}

	// Bump from the first parsable tag; the result is copied, not
	// recomputed per record.
	tag := bumpTag(firstTag(records), now)

	for i, path := range s.Paths {
		rec := records[i]
		rec["totalActivities"] = totalActivities
		rec["lastUpdated"] = now.Format(time.RFC3339)
		rec["cacheBust"] = tag

		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return tag, fmt.Errorf("marshal meta record: %w", err)
		}
		if err := atomicfile.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return tag, fmt.Errorf("sync meta record %s: %w", path, err)
		}
	}
	return tag, nil
}

// loadRecord reads one metadata record. Missing or corrupt records start
// fresh; meta is derived data and will be fully recomputed.
func loadRecord(path string) Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("meta: %s unreadable, rewriting: %v", path, err)
		return Record{}
	}
	return rec
}

// firstTag returns the first cacheBust value found across records. Records
// that never carried a tag start the sequence at v0000.
func firstTag(records []Record) string {
	for _, rec := range records {
		if tag, ok := rec["cacheBust"].(string); ok && tag != "" {
			return tag
		}
	}
	return "v0000"
}

// bumpTag increments the integer suffix of a vNNNN tag. An unparsable tag
// resets to a time-derived value instead of failing the sync.
func bumpTag(current string, now time.Time) string {
	trimmed := strings.TrimPrefix(current, "v")
	// Tags may carry a suffix after a dash; only the leading integer bumps.
	if i := strings.Index(trimmed, "-"); i >= 0 {
		trimmed = trimmed[:i]
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return "v" + now.Format("01021504")
	}
	return fmt.Sprintf("v%04d", n+1)
}
