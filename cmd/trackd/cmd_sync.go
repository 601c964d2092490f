package main

import (
	"fmt"
	"path/filepath"

	"trackd/pkg/activity"
	"trackd/pkg/meta"

	"github.com/spf13/cobra"
)

// newSyncCmd creates the "trackd sync" subcommand.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Resynchronize metadata from the store",
		Long:  "Recomputes the activity count in every metadata record and bumps\nthe cache tag, without scanning anything.",
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

			sync := meta.New(
				filepath.Join(env.Tracker, "data", "meta.json"),
				filepath.Join(env.Tracker, "meta.json"),
			)
			tag, err := sync.Sync(len(entries))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d activities, cache tag %s\n", len(entries), tag)
			return nil
		},
	}

	return cmd
}
