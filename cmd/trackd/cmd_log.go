package main

import (
	"fmt"
	"path/filepath"
	"time"

	"trackd/pkg/activity"
	"trackd/pkg/meta"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newLogCmd creates the "trackd log" subcommand for manual entries.
func newLogCmd() *cobra.Command {
	var (
		agent   string
		project string
		repo    string
	)

	cmd := &cobra.Command{
		Use:   "log <type> <description>",
		Short: "Record a manual activity",
		Long:  "Adds a hand-written activity to the store, merged and deduplicated\nthe same way scanned activities are.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSetup()
			if err != nil {
				return err
			}

			now := time.Now()
			entry := activity.Activity{
				ID:          "manual-" + uuid.NewString()[:8],
				Timestamp:   activity.FormatTimestamp(now.UnixMilli()),
				TimestampMS: now.UnixMilli(),
				Agent:       agent,
				Type:        args[0],
				Project:     project,
				Description: args[1],
				Source:      "manual",
				Repo:        repo,
			}

			store := &activity.Store{Path: filepath.Join(env.Tracker, "data", "activity-log.json")}
			existing, err := store.Load()
			if err != nil {
				return err
			}
			merged := activity.Merge(existing, []activity.Activity{entry})
			if err := store.Save(merged); err != nil {
				return err
			}

			sync := meta.New(
				filepath.Join(env.Tracker, "data", "meta.json"),
				filepath.Join(env.Tracker, "meta.json"),
			)
			tag, err := sync.Sync(len(merged))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (store %d, cache tag %s)\n", entry.ID, len(merged), tag)
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "main", "agent the activity belongs to")
	cmd.Flags().StringVar(&project, "project", "manual", "project the activity belongs to")
	cmd.Flags().StringVar(&repo, "repo", "", "repository the activity touches")

	return cmd
}
