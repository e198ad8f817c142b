package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	EventTypeID *uuid.UUID `json:"eventTypeId,omitempty"`
	EventDate   string     `json:"eventDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type EventResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventTypeID   *uuid.UUID `json:"eventTypeId,omitempty"`
	Name          string     `json:"name"`
	EventDate     *string    `json:"eventDate,omitempty"`
	PipelineStage string     `json:"pipelineStage"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type StageChangeResponse struct {
	OldStage    string     `json:"oldStage"`
	NewStage    string     `json:"newStage"`
	QuotationID *uuid.UUID `json:"quotationId,omitempty"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
	Reason      string     `json:"reason"`
	CreatedAt   time.Time  `json:"createdAt"`
}
