package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/internal/dashboard"
	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
)

// SummaryBuilder produces the dashboard summary, filling its cache.
type SummaryBuilder interface {
	Summary(ctx context.Context) (dashboard.Summary, error)
}

// DashboardWarmupJob pre-populates the dashboard cache.
type DashboardWarmupJob struct {
	Dashboard SummaryBuilder
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(builder SummaryBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: builder, Logger: logger, Metrics: metrics, Timeout: 20 * time.Second}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	tracker := metricsOrDefault(j.Metrics).Track(TaskDashboardWarmup)
	defer func() { err = tracker.End(err) }()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	summary, err := j.Dashboard.Summary(ctx)
	if err != nil {
		loggerFor(j.Logger, TaskDashboardWarmup).Error("dashboard warmup failed", slog.Any("error", err))
		return err
	}
	loggerFor(j.Logger, TaskDashboardWarmup).Info("dashboard warmed",
		slog.Int("orders", summary.Orders.Total),
		slog.Duration("duration", time.Since(start)))
	return nil
}
