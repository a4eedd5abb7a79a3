package batch

import (
	"context"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"time"
)

type StatisticsSource interface {
	Statistics() customer.Statistics
}

// StatisticsJob takes a snapshot of the store statistics, publishes it as
// Prometheus gauges and logs it.
type StatisticsJob struct {
	source  StatisticsSource
	timeout time.Duration
	logger  *slog.Logger
}

func NewStatisticsJob(source StatisticsSource, timeout time.Duration, logger *slog.Logger) *StatisticsJob {
	if source == nil || logger == nil {
		panic("StatisticsJob dependencies cannot be nil")
	}
	return &StatisticsJob{
		source:  source,
		timeout: timeout,
		logger:  logger.With("job", "StatisticsSnapshot"),
	}
}

func (j *StatisticsJob) Run(ctx context.Context) (err error) {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting statistics snapshot job.")

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	stats, err := j.snapshot(ctx)
	if err != nil {
		monitoring.RecordSnapshotFailure()
		j.logger.ErrorContext(ctx, "Statistics snapshot job aborted.", slog.Any("error", err))
		return err
	}

	monitoring.RecordSnapshot(monitoring.Snapshot{
		Total:          stats.TotalCustomers,
		Active:         stats.ActiveCustomers,
		Inactive:       stats.InactiveCustomers,
		VIP:            stats.VIPCustomers,
		Regular:        stats.RegularCustomers,
		TotalBalance:   stats.TotalBalance.InexactFloat64(),
		TotalPurchased: stats.TotalPurchased.InexactFloat64(),
		VIPSavings:     stats.TotalVIPSavings.InexactFloat64(),
	})

	j.logger.InfoContext(ctx, "Statistics snapshot job finished successfully.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_customers", stats.TotalCustomers),
		slog.Int("active_customers", stats.ActiveCustomers),
		slog.Int("vip_customers", stats.VIPCustomers),
		slog.String("total_balance", stats.TotalBalance.StringFixed(2)),
		slog.String("average_balance", stats.AverageBalance.StringFixed(2)),
		slog.String("total_vip_savings", stats.TotalVIPSavings.StringFixed(2)),
	)
	return nil
}

func (j *StatisticsJob) snapshot(ctx context.Context) (customer.Statistics, error) {
	done := make(chan customer.Statistics, 1)
	go func() { done <- j.source.Statistics() }()

	select {
	case stats := <-done:
		return stats, nil
	case <-ctx.Done():
		return customer.Statistics{}, fmt.Errorf("statistics snapshot did not complete: %w", ctx.Err())
	}
}
