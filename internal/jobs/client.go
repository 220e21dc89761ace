package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/services"
)

// Enqueuer is the subset of *asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits workflow tasks.
type Client struct {
	queue   Enqueuer
	timeout time.Duration
	logger  *slog.Logger
}

// RedisOpt converts the redis config section into asynq connection options.
func RedisOpt(cfg config.Redis) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// NewClient connects to the configured redis instance. timeout bounds each
// task's execution on the worker side.
func NewClient(cfg config.Redis, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithEnqueuer(asynq.NewClient(RedisOpt(cfg)), timeout, logger)
}

// NewClientWithEnqueuer wraps an existing enqueuer.
func NewClientWithEnqueuer(queue Enqueuer, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		queue:   queue,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "jobs"),
	}
}

// EnqueueProject schedules a full run of a stored project and returns the
// asynq task id.
func (c *Client) EnqueueProject(ctx context.Context, projectID string) (string, error) {
	task, err := NewRunProjectTask(projectID, c.timeout)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, projectID, task)
}

// EnqueueStep schedules a single-stage re-run.
func (c *Client) EnqueueStep(ctx context.Context, projectID string, step project.Step) (string, error) {
	task, err := NewRunStepTask(projectID, step, c.timeout)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, projectID, task)
}

func (c *Client) enqueue(ctx context.Context, projectID string, task *asynq.Task) (string, error) {
	info, err := c.queue.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("%w: enqueue %s: %w", services.ErrTransient, task.Type(), err)
	}
	logging.WithContext(services.WithProjectID(ctx, projectID), c.logger).Info("task enqueued",
		logging.String(logging.FieldEventType, "task_enqueued"),
		logging.String("task_type", task.Type()),
		logging.String("task_id", info.ID),
		logging.String("queue", info.Queue),
	)
	return info.ID, nil
}

// Close releases the redis connection.
func (c *Client) Close() error {
	if c == nil || c.queue == nil {
		return nil
	}
	return c.queue.Close()
}
