// Package cli holds operator helpers for the printdesk task queue.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/jobs"
)

// Enqueuer is the part of asynq.Client the CLI needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Inspector is the part of asynq.Inspector the CLI needs.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
}

// NewJobsCLI opens a queue client and inspector on the given Redis.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// NewJobsCLIWith builds the helpers around existing queue handles.
func NewJobsCLIWith(client Enqueuer, inspector Inspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported task by name. The order sync task takes the
// order id, job type and job status as arguments.
func (c *JobsCLI) Trigger(ctx context.Context, name string, args ...string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var (
		task *asynq.Task
		opts []asynq.Option
		err  error
	)
	switch name {
	case jobs.TaskDashboardWarmup:
		task = jobs.NewDashboardWarmupTask()
		opts = append(opts, asynq.MaxRetry(3))
	case jobs.TaskOrderSync:
		if len(args) != 3 {
			return nil, fmt.Errorf("jobs cli: %s needs ORDER_ID JOB_TYPE JOB_STATUS", name)
		}
		task, err = jobs.NewOrderSyncTask(jobs.OrderSyncPayload{OrderID: args[0], JobType: args[1], JobStatus: args[2]})
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, opts...)
}

// InspectQueue reports the depth of every worker queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) ([]jobs.QueueHealth, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return jobs.Inspect(c.inspector)
}

// ListScheduled returns up to size scheduled tasks per queue.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	var out []*asynq.TaskInfo
	for _, queue := range jobs.QueueNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks, err := c.inspector.ListScheduledTasks(queue, asynq.PageSize(size), asynq.Page(1))
		if errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tasks...)
	}
	return out, nil
}
