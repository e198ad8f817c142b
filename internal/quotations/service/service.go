package service

import (
	"context"
	"errors"

	"eventquote_backend/internal/events"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/logger"
)

const defaultMaxCascadeAttempts = 5

// Service provides business logic for quotations: pricing, drafts, snapshots
// and the authorization lifecycle.
type Service struct {
	repo    Store
	catalog CatalogReader
	config  PricingConfigReader
	drafts  DraftStore
	log     *logger.Logger

	stages   EventStageWriter
	payments PaymentLedger
	bookings BookingManager

	archive     ArchiveStore          // nil keeps archives in the database only
	retries     CascadeRetryScheduler // nil disables automatic step retries
	maxAttempts int
	eventBus    events.Publisher
}

// New creates a new quotations service
func New(repo Store, catalog CatalogReader, config PricingConfigReader, drafts DraftStore, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		catalog:     catalog,
		config:      config,
		drafts:      drafts,
		log:         log,
		maxAttempts: defaultMaxCascadeAttempts,
	}
}

// SetCascadeCollaborators injects the entities touched by transition cascades.
func (s *Service) SetCascadeCollaborators(stages EventStageWriter, payments PaymentLedger, bookings BookingManager) {
	s.stages = stages
	s.payments = payments
	s.bookings = bookings
}

// SetArchiveStore injects the document store for archived quotations.
func (s *Service) SetArchiveStore(store ArchiveStore) {
	s.archive = store
}

// SetCascadeRetryScheduler enables automatic retries of failed cascade steps
// up to maxAttempts attempts per step.
func (s *Service) SetCascadeRetryScheduler(scheduler CascadeRetryScheduler, maxAttempts int) {
	s.retries = scheduler
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
}

// SetEventBus injects the domain event bus.
func (s *Service) SetEventBus(bus events.Publisher) {
	s.eventBus = bus
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

// persistErr passes domain errors through and reports anything else from the
// storage boundary as a retryable persistence error.
func (s *Service) persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.log.DatabaseError(op, err)
	return apperr.Persistence("failed to "+op, err).WithOp(op)
}
