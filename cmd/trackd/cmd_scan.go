package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"trackd/pkg/cyclelog"
	"trackd/pkg/pipeline"

	"github.com/spf13/cobra"
)

// newScanCmd creates the "trackd scan" subcommand.
func newScanCmd() *cobra.Command {
	var noPublish bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one tracking cycle",
		Long:  "Scans session transcripts and configured git repositories once,\nmerges new activities into the store, and publishes the result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSetup()
			if err != nil {
				return err
			}
			if noPublish {
				env.Config.Push = false
			}

			p := pipeline.New(env.Config, env.Tracker)
			p.Logf = log.Printf

			report, err := p.RunCycle(cmd.Context())
			recordCycle(cmd.Context(), env.Paths.CycleDBPath, report)
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "skip the git publish step")

	return cmd
}

// recordCycle appends the report to cycle history. History is advisory, so
// failures only warn.
func recordCycle(ctx context.Context, dbPath string, report *pipeline.Report) {
	if report == nil {
		return
	}
	history, err := cyclelog.Open(dbPath)
	if err != nil {
		log.Printf("Warning: could not open cycle history: %v", err)
		return
	}
	defer history.Close()

	entry := cyclelog.Entry{
		StartedAt:       report.StartedAt,
		Duration:        report.Duration,
		SessionsScanned: report.SessionsScanned,
		EventsSeen:      report.EventsSeen,
		LinesMalformed:  report.LinesMalformed,
		ActivitiesFound: report.ActivitiesFound,
		StoreSize:       report.StoreSize,
		Published:       report.Published,
	}
	if report.PublishErr != nil {
		entry.PublishError = report.PublishErr.Error()
	}
	if err := history.Record(ctx, entry); err != nil {
		log.Printf("Warning: could not record cycle: %v", err)
	}
}

// printReport writes the cycle summary for humans.
func printReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "Scanned %d sessions (%d events, %d malformed lines)\n",
		report.SessionsScanned, report.EventsSeen, report.LinesMalformed)
	fmt.Fprintf(w, "Found %d new activities\n", report.ActivitiesFound)
	fmt.Fprintf(w, "Store size %d (cache tag %s)\n", report.StoreSize, report.CacheBust)
	switch {
	case report.Published:
		fmt.Fprintln(w, "Published to tracker remote")
	case report.PublishErr != nil:
		fmt.Fprintf(w, "Publish failed: %v\n", report.PublishErr)
	}
	fmt.Fprintf(w, "Cycle took %s\n", report.Duration.Round(time.Millisecond))
}
