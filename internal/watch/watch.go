// Package watch re-runs verification when the page changes or on a schedule.
package watch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Trigger says why a run started.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerChange   Trigger = "change"
	TriggerSchedule Trigger = "schedule"
)

// RunFunc performs one verification run. Failures are the callee's to report;
// they never stop watching.
type RunFunc func(ctx context.Context, trigger Trigger)

// Options configures Run.
type Options struct {
	// Paths are the files whose changes trigger a run.
	Paths []string

	// Debounce collapses bursts of file events into one run.
	Debounce time.Duration

	// Cron is a standard cron expression. Empty disables scheduled runs.
	Cron string

	// RunOnStart performs one run before waiting for triggers.
	RunOnStart bool
}

// Run watches opts.Paths and, when opts.Cron is set, runs on schedule. It
// blocks until ctx is cancelled or a trigger fails to start.
func Run(ctx context.Context, opts Options, run RunFunc) error {
	if len(opts.Paths) == 0 && opts.Cron == "" {
		return fmt.Errorf("nothing to watch: no paths and no schedule")
	}

	var sched *Scheduler
	if opts.Cron != "" {
		var err error
		if sched, err = NewScheduler(opts.Cron, run); err != nil {
			return err
		}
	}

	if opts.RunOnStart {
		run(ctx, TriggerStart)
	}

	g, ctx := errgroup.WithContext(ctx)
	if len(opts.Paths) > 0 {
		w := NewWatcher(opts.Paths, opts.Debounce, run)
		g.Go(func() error { return w.Watch(ctx) })
	}
	if sched != nil {
		g.Go(func() error { return sched.Start(ctx) })
	}
	return g.Wait()
}
