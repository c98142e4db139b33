package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of asynq.Client the queue client needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits tasks to the queue.
type Client struct {
	client Enqueuer
}

// NewClient opens an asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// NewClientWith wraps an existing enqueuer.
func NewClientWith(enqueuer Enqueuer) *Client {
	return &Client{client: enqueuer}
}

// EnqueueOrderSync enqueues an order sync task on the sync queue.
func (c *Client) EnqueueOrderSync(ctx context.Context, payload OrderSyncPayload) (*asynq.TaskInfo, error) {
	task, err := NewOrderSyncTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// SyncProduction defers the order update to the worker. It satisfies the
// production service's order sync port in queue mode.
func (c *Client) SyncProduction(ctx context.Context, orderID, jobType, jobStatus string) error {
	_, err := c.EnqueueOrderSync(ctx, OrderSyncPayload{OrderID: orderID, JobType: jobType, JobStatus: jobStatus})
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
