package watch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/neboloop/pageverify/internal/logging"
)

// Scheduler runs a RunFunc on a cron schedule.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	run      RunFunc
}

// NewScheduler parses spec, a standard five-field cron expression or a
// descriptor such as "@hourly" or "@every 10m".
func NewScheduler(spec string, run RunFunc) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, run: run}, nil
}

// Start runs the schedule until ctx is cancelled, then waits for a run in
// progress to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.run(ctx, TriggerSchedule)
	}))

	c.Start()
	logging.Infof("scheduled runs: %s", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's logging through zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logging.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logging.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
