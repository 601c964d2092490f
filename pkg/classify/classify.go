// Package classify maps raw transcript events to typed activities. It is
// pure: no I/O, no clocks. Most events are noise and classify to nothing;
// silence is the correct outcome, not an error.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"trackd/pkg/activity"
	"trackd/pkg/scanner"
)

// maxDescription is the display truncation length for commands, queries and
// task descriptions. Truncation is cosmetic only and never feeds the id.
const maxDescription = 60

// sourceSession marks activities extracted from session transcripts.
const sourceSession = "session_monitor"

// rule describes how one tool name becomes an activity. Describe returns
// ok=false to discard the call as noise.
type rule struct {
	activityType string
	describe     func(args map[string]any) (desc, file string, ok bool)
}

// toolRules is the dispatch table from tool name to activity rule. Adding a
// tool type is a table entry, not a new branch.
var toolRules = map[string]rule{
	"write": {"file_write", describeFileOp("Created/updated file")},
	"Write": {"file_write", describeFileOp("Created/updated file")},
	"edit":  {"file_edit", describeFileOp("Edited file")},
	"Edit":  {"file_edit", describeFileOp("Edited file")},
	"exec":  {"script_execution", describeExec},
	"browser": {"browser_automation", func(args map[string]any) (string, string, bool) {
		return "Browser action: " + argString(args, "action"), "", true
	}},
	"web_search": {"web_research", describeWebResearch},
	"web_fetch":  {"web_research", describeWebResearch},
	"sessions_spawn": {"subagent_spawn", func(args map[string]any) (string, string, bool) {
		return "Spawned subagent: " + truncate(argString(args, "task")), "", true
	}},
	"message": {"communication", func(args map[string]any) (string, string, bool) {
		return "Message action: " + argString(args, "action"), "", true
	}},
	"cron": {"automation_config", func(args map[string]any) (string, string, bool) {
		return "Cron management: " + argString(args, "action"), "", true
	}},
}

// trivialCommands are shell invocations that never count as work.
var trivialCommands = map[string]bool{
	"echo": true, "ls": true, "cat": true, "pwd": true, "sleep": true,
}

// spawnTriggers are free-text phrases that synthesize a subagent activity
// even though no tool call occurred.
var spawnTriggers = []string{"sessions_spawn", "spawned subagent"}

// Classifier assigns deterministic ids to classified activities. Ids are a
// session+timestamp composite with an ordinal to separate activities that
// share both; because transcripts are consumed front to back, re-running a
// scan assigns the same ids.
type Classifier struct {
	seq map[string]int
}

// New returns a Classifier for one pipeline cycle.
func New() *Classifier {
	return &Classifier{seq: make(map[string]int)}
}

// Event classifies every content item of one transcript event. Only
// assistant events carry activity; everything else is silence.
func (c *Classifier) Event(ev scanner.Event) []activity.Activity {
	if ev.Role != "assistant" {
		return nil
	}

	var out []activity.Activity
	for _, item := range ev.Content {
		switch item.Type {
		case "toolCall":
			if a, ok := c.classifyTool(ev, item); ok {
				out = append(out, a)
			}
		case "text":
			if a, ok := c.classifyText(ev, item.Text); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

func (c *Classifier) classifyTool(ev scanner.Event, item scanner.ContentItem) (activity.Activity, bool) {
	r, known := toolRules[item.Name]
	if !known {
		return activity.Activity{}, false
	}
	desc, file, ok := r.describe(item.Arguments)
	if !ok {
		return activity.Activity{}, false
	}
	return c.build(ev, r.activityType, desc, file), true
}

func (c *Classifier) classifyText(ev scanner.Event, text string) (activity.Activity, bool) {
	lower := strings.ToLower(text)
	for _, trigger := range spawnTriggers {
		if strings.Contains(lower, trigger) {
			return c.build(ev, "subagent_spawn", "Spawned subagent for background task", ""), true
		}
	}
	return activity.Activity{}, false
}

func (c *Classifier) build(ev scanner.Event, activityType, desc, file string) activity.Activity {
	key := fmt.Sprintf("%s-%d", ev.SessionKey, ev.TimestampMS)
	ordinal := c.seq[key]
	c.seq[key]++

	return activity.Activity{
		ID:          fmt.Sprintf("session-%s-%d", key, ordinal),
		Timestamp:   activity.FormatTimestamp(ev.TimestampMS),
		TimestampMS: ev.TimestampMS,
		Agent:       ev.Agent,
		Type:        activityType,
		Project:     "session_activity",
		Description: desc,
		Source:      sourceSession,
		File:        file,
	}
}

// describeFileOp builds the rule body for write/edit tools. The file path
// may arrive under "path" or "file_path".
func describeFileOp(prefix string) func(map[string]any) (string, string, bool) {
	return func(args map[string]any) (string, string, bool) {
		path := argString(args, "path", "file_path")
		return prefix + ": " + filepath.Base(path), path, true
	}
}

// describeExec keeps only script executions: the command must reference a
// script extension, and trivial commands are filtered out.
func describeExec(args map[string]any) (string, string, bool) {
	command := argString(args, "command")
	fields := strings.Fields(command)
	if len(fields) == 0 || trivialCommands[fields[0]] {
		return "", "", false
	}
	if !strings.Contains(command, ".py") && !strings.Contains(command, ".sh") {
		return "", "", false
	}
	return "Executed script/command: " + truncate(command), "", true
}

func describeWebResearch(args map[string]any) (string, string, bool) {
	query := argString(args, "query", "url")
	return "Web research: " + truncate(query), "", true
}

// argString returns the first present string argument among keys.
func argString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// truncate caps s at maxDescription runes for display.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescription {
		return s
	}
	return string(runes[:maxDescription])
}
