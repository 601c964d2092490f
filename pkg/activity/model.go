// Package activity defines the Activity record, the canonical JSON-backed
// activity store, and the merge/dedup engine that is the only writer of that
// store.
package activity

import "time"

// Activity is one classified unit of agent work. Activities are write-once:
// the classifier and the git scanner produce them, the merge engine decides
// membership in the store, and nothing mutates them afterwards.
//
// ID is derived deterministically from the underlying source (commit hash
// prefix, or a session+timestamp composite), so re-scanning the same events
// yields the same ids. That determinism is what makes re-merge after a crash
// safe.
type Activity struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"` // ISO-8601 UTC, derived from TimestampMS
	TimestampMS int64  `json:"timestampMs"`
	Agent       string `json:"agent"`
	Type        string `json:"type"`
	Project     string `json:"project,omitempty"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Repo        string `json:"repo,omitempty"`
	File        string `json:"file,omitempty"`
	CommitHash  string `json:"commit_hash,omitempty"`
}

// FormatTimestamp renders epoch-millis as the ISO-8601 UTC form stored in
// Activity.Timestamp.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// normalize backfills TimestampMS for legacy entries that carried only the
// ISO string. Entries with neither stay at 0 and sort first.
func (a *Activity) normalize() {
	if a.TimestampMS != 0 || a.Timestamp == "" {
		return
	}
	if t, err := time.Parse(time.RFC3339, a.Timestamp); err == nil {
		a.TimestampMS = t.UnixMilli()
	}
}
