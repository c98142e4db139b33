package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
	"github.com/printdesk/printdesk/internal/shared"
)

// OrderSyncer applies a job status change to an order.
type OrderSyncer interface {
	SyncProduction(ctx context.Context, orderID, jobType, jobStatus string) error
}

// OrderSyncJob handles TaskOrderSync.
type OrderSyncJob struct {
	Orders  OrderSyncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrderSyncJob wires dependencies for the order sync handler.
func NewOrderSyncJob(orders OrderSyncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderSyncJob {
	return &OrderSyncJob{Orders: orders, Logger: logger, Metrics: metrics}
}

// Handle processes order sync tasks. Orders that no longer exist are not retried.
func (j *OrderSyncJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Orders == nil {
		return errors.New("order sync: handler not configured")
	}
	var payload OrderSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode order sync payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskOrderSync)
	defer func() { err = tracker.End(err) }()

	logger := loggerFor(j.Logger, TaskOrderSync).With(
		slog.String("order", payload.OrderID),
		slog.String("job_type", payload.JobType),
		slog.String("job_status", payload.JobStatus))

	if err := j.Orders.SyncProduction(ctx, payload.OrderID, payload.JobType, payload.JobStatus); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("order vanished before sync", slog.Any("error", err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Error("order sync failed", slog.Any("error", err))
		return err
	}
	logger.Info("order synced")
	return nil
}
