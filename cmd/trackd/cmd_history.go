package main

import (
	"fmt"
	"time"

	"trackd/pkg/cyclelog"

	"github.com/spf13/cobra"
)

// newHistoryCmd creates the "trackd history" subcommand.
func newHistoryCmd() *cobra.Command {
	var (
		limit int
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent cycle history",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSetup()
			if err != nil {
				return err
			}

			history, err := cyclelog.Open(env.Paths.CycleDBPath)
			if err != nil {
				return err
			}
			defer history.Close()

			opts := cyclelog.QueryOpts{Limit: limit}
			if since > 0 {
				cutoff := time.Now().Add(-since)
				opts.Since = &cutoff
			}
			entries, err := history.Recent(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No cycles recorded")
				return nil
			}
			for _, e := range entries {
				status := "ok"
				switch {
				case e.PublishError != "":
					status = "publish failed"
				case e.Published:
					status = "published"
				}
				fmt.Fprintf(w, "%s  %3d sessions  %4d events  %+4d activities  store %d  %s (%s)\n",
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					e.SessionsScanned, e.EventsSeen, e.ActivitiesFound,
					e.StoreSize, status, e.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent cycles to show")
	cmd.Flags().DurationVar(&since, "since", 0, "only show cycles newer than this age (e.g. 24h)")

	return cmd
}
