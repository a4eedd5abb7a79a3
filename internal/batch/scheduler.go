package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Job interface {
	Run(ctx context.Context) error
}

// StartScheduler registers job under schedule (standard five-field cron
// syntax) and starts the scheduler.
func StartScheduler(schedule string, job Job, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := job.Run(context.Background()); err != nil {
			logger.Error("Scheduled job failed", slog.Any("error", err))
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("Cron scheduler started", "schedule", schedule)
	return c, nil
}

func StopScheduler(c *cron.Cron, timeout time.Duration, logger *slog.Logger) {
	if c == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(timeout):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}
