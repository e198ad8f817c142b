// Package service moves client events through the sales pipeline.
package service

import (
	"context"
	"strings"
	"time"

	"eventquote_backend/internal/events"
	"eventquote_backend/internal/pipeline/repository"
	"eventquote_backend/internal/pipeline/transport"
	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	reasonQuotationApproved  = "quotation approved"
	reasonQuotationCancelled = "quotation cancelled"
)

// Store is the persistence port of the pipeline service.
type Store interface {
	CreateEvent(ctx context.Context, e *repository.Event) error
	GetEvent(ctx context.Context, id, orgID uuid.UUID) (*repository.Event, error)
	SetStage(ctx context.Context, params repository.SetStageParams) (string, bool, error)
	ListStageHistory(ctx context.Context, eventID, orgID uuid.UUID) ([]repository.StageChange, error)
}

// Service handles events and their pipeline stage.
type Service struct {
	repo     Store
	eventBus events.Publisher
	log      *logger.Logger
}

// New creates a new pipeline service.
func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetEventBus sets the event bus used for stage change notifications.
func (s *Service) SetEventBus(bus events.Publisher) {
	s.eventBus = bus
}

// CreateEvent registers a client event.
func (s *Service) CreateEvent(ctx context.Context, orgID uuid.UUID, req transport.CreateEventRequest) (*transport.EventResponse, error) {
	e := &repository.Event{
		OrganizationID: orgID,
		EventTypeID:    req.EventTypeID,
		Name:           strings.TrimSpace(req.Name),
		PipelineStage:  lifecycle.StageNew,
	}
	if req.EventDate != "" {
		d, err := time.Parse(time.DateOnly, req.EventDate)
		if err != nil {
			return nil, apperr.Validation("invalid eventDate").WithDetails(map[string]string{"eventDate": "must be YYYY-MM-DD"})
		}
		e.EventDate = &d
	}

	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("event created", "id", e.ID, "name", e.Name)
	resp := toEventResponse(e)
	return &resp, nil
}

// GetEvent retrieves an event.
func (s *Service) GetEvent(ctx context.Context, orgID, id uuid.UUID) (*transport.EventResponse, error) {
	e, err := s.repo.GetEvent(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	resp := toEventResponse(e)
	return &resp, nil
}

// ListStageHistory returns the stage changes of an event.
func (s *Service) ListStageHistory(ctx context.Context, orgID, eventID uuid.UUID) ([]transport.StageChangeResponse, error) {
	if _, err := s.repo.GetEvent(ctx, eventID, orgID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListStageHistory(ctx, eventID, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]transport.StageChangeResponse, len(items))
	for i, c := range items {
		resp[i] = transport.StageChangeResponse{
			OldStage:    c.OldStage,
			NewStage:    c.NewStage,
			QuotationID: c.QuotationID,
			ActorID:     c.ActorID,
			Reason:      c.Reason,
			CreatedAt:   c.CreatedAt,
		}
	}
	return resp, nil
}

// AdvanceEventStage moves the event forward after a quotation approval.
// Repeating the call is harmless.
func (s *Service) AdvanceEventStage(ctx context.Context, orgID, eventID uuid.UUID, stage string, quotationID, actorID uuid.UUID) error {
	return s.setStage(ctx, orgID, eventID, stage, quotationID, actorID, reasonQuotationApproved)
}

// RevertEventStage moves the event back after an approved quotation is cancelled.
func (s *Service) RevertEventStage(ctx context.Context, orgID, eventID uuid.UUID, stage string, quotationID, actorID uuid.UUID) error {
	return s.setStage(ctx, orgID, eventID, stage, quotationID, actorID, reasonQuotationCancelled)
}

func (s *Service) setStage(ctx context.Context, orgID, eventID uuid.UUID, stage string, quotationID, actorID uuid.UUID, reason string) error {
	params := repository.SetStageParams{
		OrganizationID: orgID,
		EventID:        eventID,
		Stage:          stage,
		QuotationID:    &quotationID,
		Reason:         reason,
	}
	// Automatic retries run without a user.
	if actorID != uuid.Nil {
		params.ActorID = &actorID
	}

	old, changed, err := s.repo.SetStage(ctx, params)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.log.Info("event stage changed", "eventId", eventID, "from", old, "to", stage, "quotationId", quotationID)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.PipelineStageChanged{
			BaseEvent:      events.NewBaseEvent(),
			EventID:        eventID,
			OrganizationID: orgID,
			OldStage:       old,
			NewStage:       stage,
			QuotationID:    &quotationID,
		})
	}
	return nil
}

func toEventResponse(e *repository.Event) transport.EventResponse {
	resp := transport.EventResponse{
		ID:            e.ID,
		EventTypeID:   e.EventTypeID,
		Name:          e.Name,
		PipelineStage: e.PipelineStage,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.EventDate != nil {
		d := e.EventDate.Format(time.DateOnly)
		resp.EventDate = &d
	}
	return resp
}
