package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueSync carries order status propagation and is served first.
	QueueSync = "sync"
	// QueueMaintenance carries cache warmups and other housekeeping.
	QueueMaintenance = "maintenance"

	// TaskOrderSync propagates a production job status change to its order.
	TaskOrderSync = "production:job_status"
	// TaskDashboardWarmup rebuilds the cached dashboard summary.
	TaskDashboardWarmup = "dashboard:warmup"
)

// QueuePriorities are the weighted queues the worker serves.
var QueuePriorities = map[string]int{
	QueueSync:        6,
	QueueMaintenance: 1,
}

// QueueNames lists the queues in priority order.
func QueueNames() []string {
	return []string{QueueSync, QueueMaintenance}
}

// OrderSyncPayload describes one job status change.
type OrderSyncPayload struct {
	OrderID   string `json:"order_id"`
	JobType   string `json:"job_type"`
	JobStatus string `json:"job_status"`
}

// NewOrderSyncTask builds the task for one job status change.
func NewOrderSyncTask(payload OrderSyncPayload) (*asynq.Task, error) {
	if payload.OrderID == "" || payload.JobStatus == "" {
		return nil, errors.New("order sync task requires order_id and job_status")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSync, data,
		asynq.Queue(QueueSync),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewDashboardWarmupTask builds the periodic warmup task. Duplicates enqueued
// within five minutes are rejected.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil,
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Unique(5*time.Minute),
	)
}
