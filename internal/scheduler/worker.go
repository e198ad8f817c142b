package scheduler

import (
	"context"

	quotetransport "eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/config"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// CascadeStepRetrier re-runs one step of a recorded cascade.
type CascadeStepRetrier interface {
	RetryCascadeStep(ctx context.Context, orgID, actorID, quotationID, runID uuid.UUID, step string) (*quotetransport.StepResultResponse, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	retrier CascadeStepRetrier
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, retrier CascadeStepRetrier, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		retrier: retrier,
		log:     log,
	}

	mux.HandleFunc(TaskCascadeStepRetry, w.handleCascadeStepRetry)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleCascadeStepRetry runs the step as the system actor. A step that fails
// again is reported and rescheduled by the retrier itself, so only errors
// reaching the retry machinery are returned to asynq.
func (w *Worker) handleCascadeStepRetry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCascadeStepRetryPayload(task)
	if err != nil {
		return err
	}

	runID, err := uuid.Parse(payload.RunID)
	if err != nil {
		return err
	}
	quotationID, err := uuid.Parse(payload.QuotationID)
	if err != nil {
		return err
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}

	result, err := w.retrier.RetryCascadeStep(ctx, orgID, uuid.Nil, quotationID, runID, payload.Step)
	if err != nil {
		w.log.Warn("cascade retry task failed", "runId", runID, "step", payload.Step, "error", err)
		return err
	}

	w.log.Info("cascade retry task finished", "runId", runID, "step", payload.Step, "status", result.Status, "attempts", result.Attempts)
	return nil
}
