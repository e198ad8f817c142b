package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	quotetransport "eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

func TestCascadeStepRetryPayloadRoundTrip(t *testing.T) {
	payload := CascadeStepRetryPayload{
		RunID:          uuid.NewString(),
		QuotationID:    uuid.NewString(),
		OrganizationID: uuid.NewString(),
		Step:           "void_payments",
		Attempt:        2,
	}
	task, err := NewCascadeStepRetryTask(payload)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskCascadeStepRetry {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	got, err := ParseCascadeStepRetryPayload(task)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != payload {
		t.Fatalf("payload mismatch: %+v vs %+v", got, payload)
	}
}

func TestCascadeRetryTaskIDPerAttempt(t *testing.T) {
	base := CascadeStepRetryPayload{RunID: "r", Step: "reserve_booking", Attempt: 2}
	next := base
	next.Attempt = 3
	if cascadeRetryTaskID(base) == cascadeRetryTaskID(next) {
		t.Fatalf("expected distinct task ids per attempt")
	}
	if cascadeRetryTaskID(base) != "cascade:r:reserve_booking:2" {
		t.Fatalf("unexpected task id %q", cascadeRetryTaskID(base))
	}
}

type recordingRetrier struct {
	actor uuid.UUID
	step  string
	err   error
}

func (r *recordingRetrier) RetryCascadeStep(_ context.Context, _, actorID, _, _ uuid.UUID, step string) (*quotetransport.StepResultResponse, error) {
	r.actor = actorID
	r.step = step
	if r.err != nil {
		return nil, r.err
	}
	return &quotetransport.StepResultResponse{Step: step, Status: "succeeded", Attempts: 2}, nil
}

func TestHandleCascadeStepRetryUsesSystemActor(t *testing.T) {
	retrier := &recordingRetrier{actor: uuid.New()}
	w := &Worker{retrier: retrier, log: logger.New("test")}

	task, _ := NewCascadeStepRetryTask(CascadeStepRetryPayload{
		RunID:          uuid.NewString(),
		QuotationID:    uuid.NewString(),
		OrganizationID: uuid.NewString(),
		Step:           "reserve_booking",
		Attempt:        2,
	})
	if err := w.handleCascadeStepRetry(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if retrier.actor != uuid.Nil || retrier.step != "reserve_booking" {
		t.Fatalf("unexpected retry call: actor %s step %s", retrier.actor, retrier.step)
	}
}

func TestHandleCascadeStepRetryRejectsBadPayload(t *testing.T) {
	w := &Worker{retrier: &recordingRetrier{}, log: logger.New("test")}
	task, _ := NewCascadeStepRetryTask(CascadeStepRetryPayload{RunID: "not-a-uuid"})
	if err := w.handleCascadeStepRetry(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed run id")
	}
}

func TestHandleCascadeStepRetryPropagatesInfraErrors(t *testing.T) {
	w := &Worker{retrier: &recordingRetrier{err: errors.New("db down")}, log: logger.New("test")}
	task, _ := NewCascadeStepRetryTask(CascadeStepRetryPayload{
		RunID:          uuid.NewString(),
		QuotationID:    uuid.NewString(),
		OrganizationID: uuid.NewString(),
		Step:           "advance_event_stage",
	})
	if err := w.handleCascadeStepRetry(context.Background(), task); err == nil {
		t.Fatalf("expected error to reach asynq")
	}
}

type fakePurger struct {
	before time.Time
}

func (f *fakePurger) DeleteCompletedCascadeRunsBefore(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 3, nil
}

func TestCascadeRunCleanupUsesRetention(t *testing.T) {
	purger := &fakePurger{}
	cleanup := NewCascadeRunCleanup(purger, logger.New("test"), time.Hour, 24*time.Hour)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	cleanup.now = func() time.Time { return now }

	cleanup.cleanup(context.Background())
	if !purger.before.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", purger.before)
	}
}
