package main

import (
	"fmt"

	"trackd/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root trackd command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "trackd",
		Short:         "Multi-agent activity tracker",
		Long:          "trackd scans agent session transcripts and git history,\nclassifies the activity it finds, and publishes a merged activity log.",
		Version:       fmt.Sprintf("trackd %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newScanCmd(),
		newWatchCmd(),
		newLogCmd(),
		newStatusCmd(),
		newSyncCmd(),
		newHistoryCmd(),
		newTaskCmd(),
	)

	return cmd
}
