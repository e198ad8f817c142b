package adapters

import (
	"context"

	booksvc "eventquote_backend/internal/bookings/service"
	quotesvc "eventquote_backend/internal/quotations/service"

	"github.com/google/uuid"
)

// BookingManager adapts the bookings service for quotation cascades.
type BookingManager struct {
	svc *booksvc.Service
}

func NewBookingManager(svc *booksvc.Service) *BookingManager {
	return &BookingManager{svc: svc}
}

func (a *BookingManager) ReserveBooking(ctx context.Context, orgID, eventID, quotationID uuid.UUID) error {
	return a.svc.ReserveBooking(ctx, orgID, eventID, quotationID)
}

func (a *BookingManager) RemoveBookings(ctx context.Context, orgID, quotationID uuid.UUID) error {
	return a.svc.RemoveBookings(ctx, orgID, quotationID)
}

func (a *BookingManager) ListBookings(ctx context.Context, orgID, quotationID uuid.UUID) ([]quotesvc.BookingInfo, error) {
	items, err := a.svc.ListBookings(ctx, orgID, quotationID)
	if err != nil {
		return nil, err
	}
	result := make([]quotesvc.BookingInfo, len(items))
	for i, b := range items {
		result[i] = quotesvc.BookingInfo{
			ID:       b.ID,
			Title:    b.Title,
			Status:   b.Status,
			StartsAt: b.StartsAt,
		}
	}
	return result, nil
}

var _ quotesvc.BookingManager = (*BookingManager)(nil)
