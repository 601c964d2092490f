package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trackd/pkg/config"
	"trackd/pkg/pipeline"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// stopFileName, when present in the tracker repo, shuts down the watch
// loop after the current cycle. The operator drops the file from another
// shell; the loop removes it on exit.
const stopFileName = "STOP_TRACKER"

// debounceDelay batches rapid transcript appends into one wake-up.
const debounceDelay = 2 * time.Second

// newWatchCmd creates the "trackd watch" subcommand.
func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run tracking cycles continuously",
		Long:  "Runs scan cycles on an interval and on transcript changes,\nuntil interrupted or a " + stopFileName + " file appears in the tracker repo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSetup()
			if err != nil {
				return err
			}
			if interval > 0 {
				env.Config.Interval = config.Duration(interval)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watchLoop(ctx, env, cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "override the cycle interval from config")

	return cmd
}

// watchLoop runs cycles until the context is cancelled or the stop file
// appears. Between cycles it sleeps for the configured interval, waking
// early when a watched session directory changes.
func watchLoop(ctx context.Context, env *setup, w io.Writer) error {
	p := pipeline.New(env.Config, env.Tracker)
	p.Logf = log.Printf

	interval := time.Duration(env.Config.Interval)
	stopFile := filepath.Join(env.Tracker, stopFileName)

	wake, closeWatcher := watchSessionDirs(env)
	defer closeWatcher()

	fmt.Fprintf(w, "Watching every %s (stop with %s or Ctrl-C)\n", interval, stopFile)

	for {
		if stopRequested(stopFile) {
			fmt.Fprintln(w, "Stop file found, shutting down")
			return nil
		}

		report, err := p.RunCycle(ctx)
		recordCycle(ctx, env.Paths.CycleDBPath, report)
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			log.Printf("cycle failed: %v", err)
		case report.ActivitiesFound > 0:
			fmt.Fprintf(w, "%s +%d activities (store %d)\n",
				time.Now().Format("15:04:05"), report.ActivitiesFound, report.StoreSize)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-wake:
		case <-time.After(interval):
		}
	}
}

// stopRequested reports whether the stop file exists, removing it so the
// next watch run is not immediately shut down again.
func stopRequested(stopFile string) bool {
	if _, err := os.Stat(stopFile); err != nil {
		return false
	}
	_ = os.Remove(stopFile)
	return true
}

// watchSessionDirs starts an fsnotify watcher over the configured session
// directories and returns a channel that pulses after changes settle.
// Watch setup failures degrade to interval-only polling.
func watchSessionDirs(env *setup) (<-chan struct{}, func()) {
	wake := make(chan struct{}, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (falling back to polling)", err)
		return wake, func() {}
	}

	watched := 0
	for _, dir := range env.Config.SessionDirs() {
		if err := watcher.Add(dir.Sessions); err != nil {
			log.Printf("fsnotify: failed to watch %s: %v", dir.Sessions, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = watcher.Close()
		return wake, func() {}
	}

	go func() {
		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceDelay)
			case <-timer.C:
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("fsnotify: watcher error: %v", err)
			}
		}
	}()

	return wake, func() { _ = watcher.Close() }
}
