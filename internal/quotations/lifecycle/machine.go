// Package lifecycle implements the quotation authorization state machine and
// the ordered cascade steps that accompany its transitions.
package lifecycle

import (
	"fmt"

	"eventquote_backend/platform/apperr"
)

// Status is the authorization status of a quotation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusApproved   Status = "approved"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// IsActive reports whether the status drives the event's commercial state.
func (s Status) IsActive() bool {
	return s == StatusAuthorized || s == StatusApproved
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// Action is an operator request against the state machine.
type Action string

const (
	ActionAuthorize Action = "authorize"
	ActionApprove   Action = "approve"
	ActionCancel    Action = "cancel"
	ActionReject    Action = "reject"
)

// StepName identifies one cascade step.
type StepName string

const (
	StepAdvanceEventStage StepName = "advance_event_stage"
	StepReserveBooking    StepName = "reserve_booking"
	StepVoidPayments      StepName = "void_payments"
	StepRemoveBookings    StepName = "remove_bookings"
	StepRevertEventStage  StepName = "revert_event_stage"
)

// Valid reports whether the step is known.
func (s StepName) Valid() bool {
	switch s {
	case StepAdvanceEventStage, StepReserveBooking, StepVoidPayments, StepRemoveBookings, StepRevertEventStage:
		return true
	}
	return false
}

// Pipeline stages the cascades move the owning event between.
const (
	StageNew                = "new"
	StageCommercialApproved = "commercial_approved"
)

type transitionKey struct {
	from   Status
	action Action
}

var transitions = map[transitionKey]Status{
	{StatusPending, ActionAuthorize}:  StatusAuthorized,
	{StatusPending, ActionApprove}:    StatusApproved,
	{StatusAuthorized, ActionApprove}: StatusApproved,
	{StatusPending, ActionCancel}:     StatusCancelled,
	{StatusAuthorized, ActionCancel}:  StatusCancelled,
	{StatusApproved, ActionCancel}:    StatusCancelled,
	{StatusPending, ActionReject}:     StatusRejected,
	{StatusAuthorized, ActionReject}:  StatusRejected,
}

var cascades = map[transitionKey][]StepName{
	{StatusPending, ActionApprove}:    {StepAdvanceEventStage, StepReserveBooking},
	{StatusAuthorized, ActionApprove}: {StepAdvanceEventStage, StepReserveBooking},
	{StatusApproved, ActionCancel}:    {StepVoidPayments, StepRemoveBookings, StepRevertEventStage},
}

// Plan is a validated transition and the cascade steps it requires.
type Plan struct {
	From   Status
	To     Status
	Action Action
	Steps  []StepName
}

// HasCascade reports whether the transition carries side effects.
func (p Plan) HasCascade() bool {
	return len(p.Steps) > 0
}

// PlanTransition validates action against the current status.
func PlanTransition(from Status, action Action) (Plan, error) {
	switch action {
	case ActionAuthorize, ActionApprove, ActionCancel, ActionReject:
	default:
		return Plan{}, apperr.Validation(fmt.Sprintf("unknown action %q", action))
	}

	key := transitionKey{from: from, action: action}
	to, ok := transitions[key]
	if !ok {
		return Plan{}, apperr.Conflict(fmt.Sprintf("cannot %s a quotation in status %s", action, from))
	}

	steps := append([]StepName(nil), cascades[key]...)
	return Plan{From: from, To: to, Action: action, Steps: steps}, nil
}
