// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"eventquote_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Subscriber  = events.Subscriber
	InMemoryBus = events.InMemoryBus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Quotation Domain Events
// =============================================================================

// QuotationSubmitted is published after a quotation snapshot has been persisted.
type QuotationSubmitted struct {
	BaseEvent
	QuotationID    uuid.UUID `json:"quotationId"`
	EventID        uuid.UUID `json:"eventId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Total          string    `json:"total"`
	PriceMode      string    `json:"priceMode"`
	Resubmitted    bool      `json:"resubmitted"`
}

func (e QuotationSubmitted) EventName() string { return "quotations.quotation.submitted" }

// QuotationStatusChanged is published when the authorization state machine
// moves a quotation to a new status.
type QuotationStatusChanged struct {
	BaseEvent
	QuotationID    uuid.UUID `json:"quotationId"`
	EventID        uuid.UUID `json:"eventId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	OldStatus      string    `json:"oldStatus"`
	NewStatus      string    `json:"newStatus"`
	Partial        bool      `json:"partial"`
}

func (e QuotationStatusChanged) EventName() string { return "quotations.quotation.status_changed" }

// QuotationDeleted is published after a hard delete.
type QuotationDeleted struct {
	BaseEvent
	QuotationID    uuid.UUID `json:"quotationId"`
	EventID        uuid.UUID `json:"eventId"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (e QuotationDeleted) EventName() string { return "quotations.quotation.deleted" }

// QuotationArchived is published after an approved quotation was archived.
type QuotationArchived struct {
	BaseEvent
	QuotationID    uuid.UUID `json:"quotationId"`
	EventID        uuid.UUID `json:"eventId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	DocumentKey    string    `json:"documentKey,omitempty"`
}

func (e QuotationArchived) EventName() string { return "quotations.quotation.archived" }

// CascadeStepFailed is published for every cascade step that did not succeed.
type CascadeStepFailed struct {
	BaseEvent
	RunID          uuid.UUID `json:"runId"`
	QuotationID    uuid.UUID `json:"quotationId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Action         string    `json:"action"`
	Step           string    `json:"step"`
	Error          string    `json:"error"`
	Attempt        int       `json:"attempt"`
}

func (e CascadeStepFailed) EventName() string { return "quotations.cascade.step_failed" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// PipelineStageChanged is published when an event moves between pipeline stages.
type PipelineStageChanged struct {
	BaseEvent
	EventID        uuid.UUID  `json:"eventId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OldStage       string     `json:"oldStage"`
	NewStage       string     `json:"newStage"`
	QuotationID    *uuid.UUID `json:"quotationId,omitempty"`
}

func (e PipelineStageChanged) EventName() string { return "pipeline.event.stage_changed" }
