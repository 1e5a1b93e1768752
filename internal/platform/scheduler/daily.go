package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Daily fires a job once per day at Hour:Minute in Location.
type Daily struct {
	Name     string
	Hour     int
	Minute   int
	Location *time.Location
	Logger   *slog.Logger

	// now and after are swapped in tests.
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NextAfter returns the first fire time strictly after t.
func (d Daily) NextAfter(t time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

// Run blocks until ctx is cancelled, invoking job at every fire time. A job
// error is logged and the schedule continues.
func (d Daily) Run(ctx context.Context, job func(context.Context) error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := d.now
	if nowFn == nil {
		nowFn = time.Now
	}
	afterFn := d.after
	if afterFn == nil {
		afterFn = time.After
	}

	for {
		next := d.NextAfter(nowFn())
		logger.Info("daily job scheduled",
			"event", "scheduler_daily_scheduled",
			"module", "internal/platform/scheduler",
			"layer", "platform",
			"job", d.Name,
			"next_run_at", next.Format(time.RFC3339),
		)

		select {
		case <-ctx.Done():
			return
		case <-afterFn(next.Sub(nowFn())):
		}

		if err := job(ctx); err != nil {
			logger.Error("daily job failed",
				"event", "scheduler_daily_job_failed",
				"module", "internal/platform/scheduler",
				"layer", "platform",
				"job", d.Name,
				"error", err.Error(),
			)
		}
	}
}
