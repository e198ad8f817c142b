package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventquote_backend/internal/events"
	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
)

// DeleteCheck lists what a delete would leave behind. Payments and bookings
// are never removed with the quotation; they are surfaced as warnings.
func (s *Service) DeleteCheck(ctx context.Context, orgID, quotationID uuid.UUID) (*transport.DeleteCheckResponse, error) {
	q, err := s.repo.GetByID(ctx, quotationID, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation", err)
	}

	check := &transport.DeleteCheckResponse{
		QuotationID: q.ID,
		Status:      q.Status,
		Payments:    []transport.PaymentWarning{},
		Bookings:    []transport.BookingWarning{},
		Warnings:    []string{},
		CanArchive:  q.ArchivedAt == nil && lifecycle.Status(q.Status) == lifecycle.StatusApproved,
	}

	if s.payments != nil {
		payments, err := s.payments.ListPayments(ctx, orgID, q.ID)
		if err != nil {
			return nil, s.persistErr("list payments", err)
		}
		for _, p := range payments {
			check.Payments = append(check.Payments, transport.PaymentWarning{
				ID:         p.ID,
				Amount:     money(p.Amount),
				Method:     p.Method,
				Status:     p.Status,
				ReceivedAt: p.ReceivedAt,
			})
		}
	}
	if s.bookings != nil {
		bookings, err := s.bookings.ListBookings(ctx, orgID, q.ID)
		if err != nil {
			return nil, s.persistErr("list bookings", err)
		}
		for _, b := range bookings {
			check.Bookings = append(check.Bookings, transport.BookingWarning{
				ID:       b.ID,
				Title:    b.Title,
				Status:   b.Status,
				StartsAt: b.StartsAt,
			})
		}
	}

	if n := len(check.Payments); n > 0 {
		check.Warnings = append(check.Warnings, fmt.Sprintf("%d payment(s) are recorded for this quotation and will be kept", n))
	}
	if n := len(check.Bookings); n > 0 {
		check.Warnings = append(check.Warnings, fmt.Sprintf("%d booking(s) are linked to this quotation and will be kept", n))
	}
	if check.CanArchive {
		check.Warnings = append(check.Warnings, "approved quotations can be archived instead of deleted")
	}
	check.RequiresConfirmation = len(check.Payments) > 0 || len(check.Bookings) > 0
	return check, nil
}

// Delete hard-deletes a quotation, its lines and its costs. When payments or
// bookings exist the caller must confirm; they are preserved either way.
func (s *Service) Delete(ctx context.Context, orgID, quotationID uuid.UUID, confirm bool) error {
	check, err := s.DeleteCheck(ctx, orgID, quotationID)
	if err != nil {
		return err
	}
	if check.RequiresConfirmation && !confirm {
		return apperr.Conflict("quotation has payments or bookings; confirm to delete").WithDetails(check)
	}

	q, err := s.repo.GetByID(ctx, quotationID, orgID)
	if err != nil {
		return s.persistErr("load quotation", err)
	}
	if err := s.repo.Delete(ctx, quotationID, orgID); err != nil {
		return s.persistErr("delete quotation", err)
	}

	s.log.Info("quotation deleted", "id", quotationID, "payments", len(check.Payments), "bookings", len(check.Bookings))
	s.publish(ctx, events.QuotationDeleted{
		BaseEvent:      events.NewBaseEvent(),
		QuotationID:    quotationID,
		EventID:        q.EventID,
		OrganizationID: orgID,
	})
	return nil
}

// Archive hides an approved quotation from the active set without deleting
// it. When an archive store is configured the full snapshot is kept there as
// a document. Other statuses are deleted or cancelled instead.
func (s *Service) Archive(ctx context.Context, orgID, quotationID uuid.UUID) (*transport.ArchiveResponse, error) {
	q, err := s.repo.GetByID(ctx, quotationID, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation", err)
	}
	if q.ArchivedAt != nil {
		return nil, apperr.Conflict("quotation is already archived")
	}
	if lifecycle.Status(q.Status) != lifecycle.StatusApproved {
		return nil, apperr.Conflict("only approved quotations can be archived")
	}

	var key string
	if s.archive != nil {
		doc, err := s.loadFull(ctx, q.ID, orgID)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode archived quotation: %w", err)
		}
		key, err = s.archive.StoreQuotationSnapshot(ctx, orgID, q.ID, body)
		if err != nil {
			return nil, s.persistErr("store archived quotation", err)
		}
	}

	at := time.Now()
	if err := s.repo.Archive(ctx, q.ID, orgID, at); err != nil {
		return nil, s.persistErr("archive quotation", err)
	}

	s.log.Info("quotation archived", "id", q.ID, "documentKey", key)
	s.publish(ctx, events.QuotationArchived{
		BaseEvent:      events.NewBaseEvent(),
		QuotationID:    q.ID,
		EventID:        q.EventID,
		OrganizationID: orgID,
		DocumentKey:    key,
	})

	return &transport.ArchiveResponse{QuotationID: q.ID, ArchivedAt: at, DocumentKey: key}, nil
}
