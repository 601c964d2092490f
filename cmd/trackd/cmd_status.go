package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"trackd/pkg/activity"
	"trackd/pkg/watermark"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the "trackd status" subcommand.
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracker state",
		Long:  "Prints the store size, watermark count, and a per-agent breakdown\nof today's activity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSetup()
			if err != nil {
				return err
			}

			store := &activity.Store{Path: filepath.Join(env.Tracker, "data", "activity-log.json")}
			entries, err := store.Load()
			if err != nil {
				return err
			}

			marks, err := (&watermark.Store{Path: filepath.Join(env.Tracker, ".watermarks.json")}).Load()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Tracker: %s\n", env.Tracker)
			fmt.Fprintf(w, "Activities: %d total\n", len(entries))
			fmt.Fprintf(w, "Watermarks: %d keys\n", len(marks))

			printToday(w, env, entries)
			return nil
		},
	}

	return cmd
}

// printToday writes today's per-agent activity counts, decorated with
// roster metadata when configured.
func printToday(w io.Writer, env *setup, entries []activity.Activity) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	counts := map[string]int{}
	for _, e := range entries {
		if e.TimestampMS >= midnight.UnixMilli() {
			counts[e.Agent]++
		}
	}
	if len(counts) == 0 {
		fmt.Fprintln(w, "No activity today")
		return
	}

	agents := make([]string, 0, len(counts))
	for a := range counts {
		agents = append(agents, a)
	}
	sort.Strings(agents)

	fmt.Fprintln(w, "Today:")
	for _, a := range agents {
		label := a
		if info, ok := env.Config.Roster[a]; ok && info.Emoji != "" {
			label = info.Emoji + " " + a
		}
		fmt.Fprintf(w, "  %s: %d\n", label, counts[a])
	}
}
