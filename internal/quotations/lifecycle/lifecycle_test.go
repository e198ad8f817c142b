package lifecycle

import (
	"context"
	"errors"
	"testing"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
)

type recordingExecutor struct {
	calls   []StepName
	failing map[StepName]error
}

func (e *recordingExecutor) Execute(_ context.Context, step StepName, _ Target) error {
	e.calls = append(e.calls, step)
	return e.failing[step]
}

func TestPlanTransition_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		to     Status
		steps  int
	}{
		{StatusPending, ActionAuthorize, StatusAuthorized, 0},
		{StatusPending, ActionApprove, StatusApproved, 2},
		{StatusAuthorized, ActionApprove, StatusApproved, 2},
		{StatusPending, ActionCancel, StatusCancelled, 0},
		{StatusAuthorized, ActionCancel, StatusCancelled, 0},
		{StatusApproved, ActionCancel, StatusCancelled, 3},
		{StatusPending, ActionReject, StatusRejected, 0},
		{StatusAuthorized, ActionReject, StatusRejected, 0},
	}

	for _, tc := range cases {
		plan, err := PlanTransition(tc.from, tc.action)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error %v", tc.from, tc.action, err)
		}
		if plan.To != tc.to || len(plan.Steps) != tc.steps {
			t.Fatalf("%s/%s: expected %s with %d steps, got %s with %v", tc.from, tc.action, tc.to, tc.steps, plan.To, plan.Steps)
		}
	}
}

func TestPlanTransition_RejectsIllegalMoves(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
	}{
		{StatusApproved, ActionAuthorize},
		{StatusApproved, ActionReject},
		{StatusCancelled, ActionApprove},
		{StatusRejected, ActionCancel},
		{StatusAuthorized, ActionAuthorize},
	}

	for _, tc := range cases {
		if _, err := PlanTransition(tc.from, tc.action); !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("%s/%s: expected conflict, got %v", tc.from, tc.action, err)
		}
	}

	if _, err := PlanTransition(StatusPending, "archive"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown action, got %v", err)
	}
}

func TestCancelFromApproved_AttemptsAllStepsInOrder(t *testing.T) {
	plan, err := PlanTransition(StatusApproved, ActionCancel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exec := &recordingExecutor{failing: map[StepName]error{
		StepVoidPayments: errors.New("provider timeout"),
	}}
	runner := NewRunner(exec, nil)

	results := runner.Run(context.Background(), uuid.New(), Target{QuotationID: uuid.New()}, plan.Steps)

	want := []StepName{StepVoidPayments, StepRemoveBookings, StepRevertEventStage}
	if len(exec.calls) != len(want) {
		t.Fatalf("expected %d steps attempted, got %v", len(want), exec.calls)
	}
	for i, step := range want {
		if exec.calls[i] != step {
			t.Fatalf("expected step %d to be %s, got %s", i, step, exec.calls[i])
		}
		if results[i].Step != step {
			t.Fatalf("expected result %d for %s, got %s", i, step, results[i].Step)
		}
	}

	if results[0].Status != StepFailed || results[0].Error != "provider timeout" {
		t.Fatalf("expected void_payments failure reported, got %+v", results[0])
	}
	if results[1].Status != StepSucceeded || results[2].Status != StepSucceeded {
		t.Fatalf("expected remaining steps to succeed, got %+v", results[1:])
	}
	if !IsPartial(results) {
		t.Fatal("expected partial result")
	}
}

type panickingExecutor struct{}

func (panickingExecutor) Execute(context.Context, StepName, Target) error {
	panic("nil booking manager")
}

func TestRunStep_RecoversPanics(t *testing.T) {
	runner := NewRunner(panickingExecutor{}, nil)

	res := runner.RunStep(context.Background(), uuid.New(), Target{}, StepRemoveBookings, 2)

	if res.Status != StepFailed || res.Attempts != 2 {
		t.Fatalf("expected failed attempt 2, got %+v", res)
	}
}
