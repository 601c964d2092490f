// Package scanner reads session transcript files (line-delimited JSON) and
// yields structurally valid events newer than each session's watermark.
package scanner

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event is one accepted transcript line. Agent and SessionKey are assigned
// from the session's owning directory, never inferred from line content, so
// agents sharing an event shape cannot be misattributed.
type Event struct {
	TimestampMS int64
	Role        string
	Agent       string
	SessionKey  string
	Content     []ContentItem
}

// ContentItem is one element of an event's content payload: either a tool
// invocation (Type "toolCall") or free text (Type "text").
type ContentItem struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// rawLine is the wire shape of a transcript line. Timestamp is left raw
// because sessions mix numeric epoch-millis and ISO-8601 strings.
type rawLine struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Role      string          `json:"role"`
	Content   []ContentItem   `json:"content"`
}

// isoLayouts are the accepted string timestamp forms, tried in order.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999", // naive, assumed UTC
	"2006-01-02T15:04:05",
}

// normalizeTimestamp converts any accepted timestamp representation to
// epoch-millis. Numeric values pass through, ISO-8601 strings are parsed,
// anything else normalizes to 0. This is the single place in the pipeline
// where mixed timestamp types are handled.
func normalizeTimestamp(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if n, err := strconv.ParseInt(num.String(), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(num.String(), 64); err == nil {
			return int64(f)
		}
		return 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().UnixMilli()
		}
	}
	return 0
}
