package cli

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/harrisonrobin/gantta/pkg/google"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// calendarJobs is what the scheduled jobs need from *google.Syncer.
type calendarJobs interface {
	SyncAll(ctx context.Context, tasks []model.Task) (google.SyncReport, error)
	Sweep(ctx context.Context, tasks []model.Task) (int, error)
}

type taskSource interface {
	Tasks() []model.Task
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// newScheduler registers the full sync and the overdue sweep. An empty
// schedule disables that job. Overlapping runs of one job are skipped.
func newScheduler(ctx context.Context, logger logging.Logger, jobs calendarJobs, src taskSource, syncSpec, sweepSpec string) (*cron.Cron, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if syncSpec != "" {
		if _, err := c.AddFunc(syncSpec, func() {
			if _, err := jobs.SyncAll(ctx, src.Tasks()); err != nil {
				logger.Warn("scheduled calendar sync failed", "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}
	if sweepSpec != "" {
		if _, err := c.AddFunc(sweepSpec, func() {
			n, err := jobs.Sweep(ctx, src.Tasks())
			if err != nil {
				logger.Warn("scheduled overdue sweep failed", "error", err)
				return
			}
			if n > 0 {
				logger.Info("overdue sweep", "marked", n)
			}
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}
