package main

import (
	"fmt"
	"os"
	"path/filepath"

	"trackd/pkg/activity"
	"trackd/pkg/meta"

	"github.com/spf13/cobra"
)

// defaultConfig is written on first init as a starting point.
const defaultConfig = `# trackd configuration
#
# tracker_repo: git repository holding the activity store. Defaults to
# $TRACKD_HOME/tracker when unset.
#tracker_repo: ~/tracker

# sessions_root discovers agent transcripts at <root>/<agent>/sessions.
#sessions_root: ~/agents

# Explicit session directories, appended to the discovered ones.
#agents:
#  - name: nox
#    sessions: ~/agents/nox/sessions

# Git working copies scanned for new commits.
#repos:
#  - ~/projects/api

#project_names:
#  api: billing-api

#roster:
#  nox:
#    name: Nox
#    role: builder
#    emoji: "🔨"

staleness_days: 7
interval: 5m

# Publish the tracker repo after each merge.
push: false
remote: origin
branch: main
`

// newInitCmd creates the "trackd init" subcommand.
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the trackd home and an empty tracker",
		Long:  "Writes a starter config file and initializes the tracker data\ndirectory with an empty store and metadata records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if err := os.MkdirAll(paths.TrackdHome, 0o755); err != nil {
				return fmt.Errorf("create trackd home: %w", err)
			}

			if _, err := os.Stat(paths.ConfigPath); os.IsNotExist(err) {
				if err := os.WriteFile(paths.ConfigPath, []byte(defaultConfig), 0o644); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Fprintf(w, "Wrote %s\n", paths.ConfigPath)
			} else {
				fmt.Fprintf(w, "Config exists at %s\n", paths.ConfigPath)
			}

			env, err := loadSetup()
			if err != nil {
				return err
			}

			store := &activity.Store{Path: filepath.Join(env.Tracker, "data", "activity-log.json")}
			if _, err := os.Stat(store.Path); os.IsNotExist(err) {
				if err := store.Save(nil); err != nil {
					return err
				}
				sync := meta.New(
					filepath.Join(env.Tracker, "data", "meta.json"),
					filepath.Join(env.Tracker, "meta.json"),
				)
				if _, err := sync.Sync(0); err != nil {
					return err
				}
				fmt.Fprintf(w, "Initialized tracker at %s\n", env.Tracker)
			} else {
				fmt.Fprintf(w, "Tracker exists at %s\n", env.Tracker)
			}

			return nil
		},
	}

	return cmd
}
