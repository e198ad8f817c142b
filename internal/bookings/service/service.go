// Package service reserves and releases the calendar bookings of approved
// quotations.
package service

import (
	"context"

	"eventquote_backend/internal/bookings/repository"
	"eventquote_backend/internal/bookings/transport"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence port of the bookings service.
type Store interface {
	Reserve(ctx context.Context, orgID, eventID, quotationID uuid.UUID) (*repository.Booking, bool, error)
	RemoveByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) (int64, error)
	ListByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) ([]repository.Booking, error)
	ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]repository.Booking, error)
}

// Service provides business logic for bookings
type Service struct {
	repo Store
	log  *logger.Logger
}

// New creates a new bookings service
func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ReserveBooking reserves the event's calendar slot for the quotation.
// Calling it again for the same quotation is a no-op.
func (s *Service) ReserveBooking(ctx context.Context, orgID, eventID, quotationID uuid.UUID) error {
	booking, created, err := s.repo.Reserve(ctx, orgID, eventID, quotationID)
	if err != nil {
		return err
	}
	if created {
		s.log.Info("booking reserved", "id", booking.ID, "eventId", eventID, "quotationId", quotationID)
	}
	return nil
}

// RemoveBookings releases every reserved booking of the quotation.
func (s *Service) RemoveBookings(ctx context.Context, orgID, quotationID uuid.UUID) error {
	removed, err := s.repo.RemoveByQuotation(ctx, orgID, quotationID)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("bookings removed", "quotationId", quotationID, "count", removed)
	}
	return nil
}

// ListBookings returns every booking of the quotation, removed ones included.
func (s *Service) ListBookings(ctx context.Context, orgID, quotationID uuid.UUID) ([]repository.Booking, error) {
	return s.repo.ListByQuotation(ctx, orgID, quotationID)
}

// List resolves the HTTP listing by quotation or event.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, quotationID, eventID *uuid.UUID) (transport.BookingListResponse, error) {
	var (
		items []repository.Booking
		err   error
	)
	if quotationID != nil {
		items, err = s.repo.ListByQuotation(ctx, orgID, *quotationID)
	} else {
		items, err = s.repo.ListByEvent(ctx, orgID, *eventID)
	}
	if err != nil {
		return transport.BookingListResponse{}, err
	}

	resp := transport.BookingListResponse{Items: make([]transport.BookingResponse, len(items))}
	for i, b := range items {
		resp.Items[i] = transport.BookingResponse{
			ID:          b.ID,
			EventID:     b.EventID,
			QuotationID: b.QuotationID,
			Title:       b.Title,
			StartsAt:    b.StartsAt,
			Status:      b.Status,
			CreatedAt:   b.CreatedAt,
			RemovedAt:   b.RemovedAt,
		}
	}
	return resp, nil
}
