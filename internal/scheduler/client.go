package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	quotesvc "eventquote_backend/internal/quotations/service"
	"eventquote_backend/platform/config"
	"eventquote_backend/platform/rediskit"

	"github.com/hibiken/asynq"
)

const (
	defaultQueue             = "default"
	defaultCascadeRetryDelay = 2 * time.Minute
	// Infrastructure failures of the retry task itself; step failures are
	// rescheduled by the quotations service.
	taskMaxRetry = 3
)

type Client struct {
	client     *asynq.Client
	queue      string
	retryDelay time.Duration
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}

	delay := cfg.GetCascadeRetryDelay()
	if delay <= 0 {
		delay = defaultCascadeRetryDelay
	}

	return &Client{
		client:     asynq.NewClient(opt),
		queue:      queue,
		retryDelay: delay,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleCascadeRetry enqueues the step retry after the configured delay.
// Enqueuing the same attempt twice is a no-op.
func (c *Client) ScheduleCascadeRetry(ctx context.Context, retry quotesvc.CascadeRetry) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload := CascadeStepRetryPayload{
		RunID:          retry.RunID.String(),
		QuotationID:    retry.QuotationID.String(),
		OrganizationID: retry.OrganizationID.String(),
		Step:           retry.Step,
		Attempt:        retry.Attempt,
	}
	task, err := NewCascadeStepRetryTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(c.retryDelay),
		asynq.Queue(c.queue),
		asynq.MaxRetry(taskMaxRetry),
		asynq.TaskID(cascadeRetryTaskID(payload)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue cascade retry: %w", err)
	}
	return nil
}

var _ quotesvc.CascadeRetryScheduler = (*Client)(nil)

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := rediskit.Options(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
