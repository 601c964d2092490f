// Package watermark persists, per session, the highest event timestamp
// already ingested. Values are epoch-millis; a session's events at or below
// its watermark are never re-emitted by the scanner.
package watermark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"trackd/internal/atomicfile"
)

// Processed is the +infinity sentinel: the session is fully consumed and is
// never reprocessed. Legacy "fully processed" flags load as this value.
const Processed = int64(1<<63 - 1)

// Map holds watermark values keyed by session identity ("agent:sessionID").
// Git repo cursors share the file under "repo:<name>" keys.
type Map map[string]int64

// Store reads and writes the watermark file wholesale each cycle.
type Store struct {
	Path string
}

// Load reads the watermark file, tolerating the three legacy on-disk shapes:
//
//   - a list of fully-processed session ids (each maps to Processed)
//   - a mapping with non-numeric values (booleans mean fully processed,
//     anything else unparsable coerces to 0)
//   - the canonical numeric mapping
//
// A missing file loads as an empty map.
func (s *Store) Load() (Map, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("read watermark file: %w", err)
	}

	// The previous tracker serialized +inf as a bare Infinity token, which
	// is not valid JSON. Rewrite it to the numeric sentinel before parsing.
	data = bytes.ReplaceAll(data, []byte(": Infinity"), []byte(": 9223372036854775807"))

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse watermark file %s: %w", s.Path, err)
	}

	m := Map{}
	switch v := raw.(type) {
	case []any:
		// Legacy list form: every listed session is fully processed.
		for _, item := range v {
			if id, ok := item.(string); ok {
				m[id] = Processed
			}
		}
	case map[string]any:
		for key, val := range v {
			m[key] = coerceValue(val)
		}
	default:
		return nil, fmt.Errorf("watermark file %s: unexpected top-level shape", s.Path)
	}
	return m, nil
}

// Save persists the map atomically; a crash mid-save leaves the previous
// file intact.
func (s *Store) Save(m Map) error {
	if m == nil {
		m = Map{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watermarks: %w", err)
	}
	if err := atomicfile.WriteFile(s.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save watermarks: %w", err)
	}
	return nil
}

// coerceValue maps one stored value to epoch-millis. Parse failures coerce
// to 0 rather than erroring: a bad value means "rescan from the start".
func coerceValue(val any) int64 {
	switch v := val.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			if f >= float64(Processed) {
				return Processed
			}
			return int64(f)
		}
		return 0
	case bool:
		// Legacy boolean "fully processed" flag.
		if v {
			return Processed
		}
		return 0
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}
