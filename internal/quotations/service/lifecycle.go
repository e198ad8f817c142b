package service

import (
	"context"
	"errors"
	"time"

	"eventquote_backend/internal/events"
	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
)

// Transition applies an action to a quotation and runs its cascade. The status
// change is committed before the cascade starts; cascade failures are reported
// per step and never roll the status back.
func (s *Service) Transition(ctx context.Context, orgID, actorID, quotationID uuid.UUID, action string) (*transport.TransitionResponse, error) {
	q, err := s.repo.GetByID(ctx, quotationID, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation", err)
	}
	if q.ArchivedAt != nil {
		return nil, apperr.Conflict("archived quotations cannot change status")
	}

	plan, err := lifecycle.PlanTransition(lifecycle.Status(q.Status), lifecycle.Action(action))
	if err != nil {
		return nil, err
	}

	if plan.To.IsActive() {
		active, err := s.repo.FindActiveForEvent(ctx, orgID, q.EventID, q.ID)
		if err != nil {
			return nil, s.persistErr("check active quotation", err)
		}
		if active != nil {
			return nil, apperr.Conflict("another quotation for this event is already authorized or approved").
				WithDetails(map[string]any{"quotationId": active.ID, "status": active.Status})
		}
	}

	if err := s.repo.UpdateStatus(ctx, q.ID, orgID, string(plan.From), string(plan.To)); err != nil {
		return nil, s.persistErr("update quotation status", err)
	}
	s.log.Info("quotation status changed", "id", q.ID, "from", plan.From, "to", plan.To, "action", plan.Action)

	resp := &transport.TransitionResponse{
		QuotationID:       q.ID,
		Status:            string(plan.To),
		SideEffectResults: []transport.StepResultResponse{},
	}

	if plan.HasCascade() {
		runID := uuid.New()
		target := lifecycle.Target{
			QuotationID:    q.ID,
			EventID:        q.EventID,
			OrganizationID: orgID,
			ActorID:        actorID,
		}
		results := lifecycle.NewRunner(&cascadeExecutor{svc: s}, s.log).Run(ctx, runID, target, plan.Steps)
		partial := lifecycle.IsPartial(results)

		s.journalRun(ctx, runID, q, plan, actorID, results, partial)
		for _, res := range results {
			if res.Status == lifecycle.StepFailed {
				s.reportStepFailure(ctx, runID, q.ID, orgID, string(plan.Action), res)
			}
		}

		resp.RunID = &runID
		resp.Partial = partial
		resp.SideEffectResults = toStepResultResponses(results)
	}

	s.publish(ctx, events.QuotationStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		QuotationID:    q.ID,
		EventID:        q.EventID,
		OrganizationID: orgID,
		OldStatus:      string(plan.From),
		NewStatus:      string(plan.To),
		Partial:        resp.Partial,
	})

	return resp, nil
}

// journalRun records the cascade. A failed write is logged only: the status
// change and the side effects already happened.
func (s *Service) journalRun(ctx context.Context, runID uuid.UUID, q *repository.Quotation, plan lifecycle.Plan, actorID uuid.UUID, results []lifecycle.StepResult, partial bool) {
	now := time.Now()
	var createdBy *uuid.UUID
	if actorID != uuid.Nil {
		createdBy = &actorID
	}
	run := &repository.CascadeRun{
		ID:             runID,
		QuotationID:    q.ID,
		OrganizationID: q.OrganizationID,
		EventID:        q.EventID,
		Action:         string(plan.Action),
		FromStatus:     string(plan.From),
		ToStatus:       string(plan.To),
		Partial:        partial,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
		Steps:          toStepRecords(runID, results),
	}
	if err := s.repo.CreateCascadeRun(context.WithoutCancel(ctx), run); err != nil {
		s.log.DatabaseError("journal cascade run", err)
	}
}

func (s *Service) reportStepFailure(ctx context.Context, runID, quotationID, orgID uuid.UUID, action string, res lifecycle.StepResult) {
	s.publish(ctx, events.CascadeStepFailed{
		BaseEvent:      events.NewBaseEvent(),
		RunID:          runID,
		QuotationID:    quotationID,
		OrganizationID: orgID,
		Action:         action,
		Step:           string(res.Step),
		Error:          res.Error,
		Attempt:        res.Attempts,
	})

	if s.retries == nil || res.Attempts >= s.maxAttempts {
		return
	}
	if err := s.retries.ScheduleCascadeRetry(context.WithoutCancel(ctx), CascadeRetry{
		RunID:          runID,
		QuotationID:    quotationID,
		OrganizationID: orgID,
		Step:           string(res.Step),
		Attempt:        res.Attempts + 1,
	}); err != nil {
		s.log.Warn("failed to schedule cascade retry", "runId", runID, "step", res.Step, "error", err)
	}
}

// ListCascadeRuns returns the cascade journal of a quotation, newest first.
func (s *Service) ListCascadeRuns(ctx context.Context, orgID, quotationID uuid.UUID) ([]transport.CascadeRunResponse, error) {
	runs, err := s.repo.ListCascadeRuns(ctx, quotationID, orgID)
	if err != nil {
		return nil, s.persistErr("list cascade runs", err)
	}
	out := make([]transport.CascadeRunResponse, len(runs))
	for i, run := range runs {
		out[i] = toCascadeRunResponse(run)
	}
	return out, nil
}

// RetryCascadeStep re-runs a single step of a recorded cascade. A step that
// already succeeded is reported without running it again. The quotation
// itself may be gone; the run carries everything the step needs.
func (s *Service) RetryCascadeStep(ctx context.Context, orgID, actorID, quotationID, runID uuid.UUID, step string) (*transport.StepResultResponse, error) {
	name := lifecycle.StepName(step)
	if !name.Valid() {
		return nil, apperr.Validation("unknown cascade step").WithDetails(map[string]string{"step": step})
	}

	run, err := s.repo.GetCascadeRun(ctx, runID, orgID)
	if err != nil {
		return nil, s.persistErr("load cascade run", err)
	}
	if run.QuotationID != quotationID {
		return nil, apperr.NotFound("cascade run not found")
	}

	var recorded *repository.CascadeStep
	for i := range run.Steps {
		if run.Steps[i].Step == step {
			recorded = &run.Steps[i]
			break
		}
	}
	if recorded == nil {
		return nil, apperr.NotFound("step is not part of this cascade run")
	}
	if recorded.Status == string(lifecycle.StepSucceeded) {
		return &transport.StepResultResponse{
			Step:       recorded.Step,
			Status:     recorded.Status,
			Attempts:   recorded.Attempts,
			FinishedAt: recorded.UpdatedAt,
		}, nil
	}

	if actorID == uuid.Nil && run.CreatedBy != nil {
		actorID = *run.CreatedBy
	}
	target := lifecycle.Target{
		QuotationID:    run.QuotationID,
		EventID:        run.EventID,
		OrganizationID: orgID,
		ActorID:        actorID,
	}
	res := lifecycle.NewRunner(&cascadeExecutor{svc: s}, s.log).RunStep(ctx, runID, target, name, recorded.Attempts+1)

	partial, err := s.repo.UpdateCascadeStep(ctx, orgID, repository.CascadeStep{
		RunID:     runID,
		Step:      step,
		Status:    string(res.Status),
		Error:     nilIfEmpty(res.Error),
		Attempts:  res.Attempts,
		UpdatedAt: res.FinishedAt,
	})
	if err != nil {
		return nil, s.persistErr("record cascade step", err)
	}
	s.log.Info("cascade step retried", "runId", runID, "step", step, "status", res.Status, "runPartial", partial)

	if res.Status == lifecycle.StepFailed {
		s.reportStepFailure(ctx, runID, run.QuotationID, orgID, run.Action, res)
	}

	return &transport.StepResultResponse{
		Step:       string(res.Step),
		Status:     string(res.Status),
		Error:      res.Error,
		Attempts:   res.Attempts,
		FinishedAt: res.FinishedAt,
	}, nil
}

var errCollaboratorMissing = errors.New("collaborator not configured")

// cascadeExecutor maps cascade steps onto the collaborating entities.
type cascadeExecutor struct {
	svc *Service
}

func (e *cascadeExecutor) Execute(ctx context.Context, step lifecycle.StepName, t lifecycle.Target) error {
	s := e.svc
	switch step {
	case lifecycle.StepAdvanceEventStage:
		if s.stages == nil {
			return errCollaboratorMissing
		}
		return s.stages.AdvanceEventStage(ctx, t.OrganizationID, t.EventID, lifecycle.StageCommercialApproved, t.QuotationID, t.ActorID)
	case lifecycle.StepReserveBooking:
		if s.bookings == nil {
			return errCollaboratorMissing
		}
		return s.bookings.ReserveBooking(ctx, t.OrganizationID, t.EventID, t.QuotationID)
	case lifecycle.StepVoidPayments:
		if s.payments == nil {
			return errCollaboratorMissing
		}
		return s.payments.VoidPayments(ctx, t.OrganizationID, t.QuotationID)
	case lifecycle.StepRemoveBookings:
		if s.bookings == nil {
			return errCollaboratorMissing
		}
		return s.bookings.RemoveBookings(ctx, t.OrganizationID, t.QuotationID)
	case lifecycle.StepRevertEventStage:
		if s.stages == nil {
			return errCollaboratorMissing
		}
		return s.stages.RevertEventStage(ctx, t.OrganizationID, t.EventID, lifecycle.StageNew, t.QuotationID, t.ActorID)
	default:
		return apperr.Validation("unknown cascade step")
	}
}
