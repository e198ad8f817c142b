package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventquote_backend/internal/bookings/repository"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.Mutex
	bookings []repository.Booking
}

func (m *memoryStore) Reserve(_ context.Context, orgID, eventID, quotationID uuid.UUID) (*repository.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		b := &m.bookings[i]
		if b.OrganizationID == orgID && b.QuotationID != nil && *b.QuotationID == quotationID && b.Status == repository.StatusReserved {
			cp := *b
			return &cp, false, nil
		}
	}
	qid := quotationID
	b := repository.Booking{
		ID:             uuid.New(),
		OrganizationID: orgID,
		EventID:        eventID,
		QuotationID:    &qid,
		Title:          "Wedding",
		Status:         repository.StatusReserved,
		CreatedAt:      time.Now(),
	}
	m.bookings = append(m.bookings, b)
	return &b, true, nil
}

func (m *memoryStore) RemoveByQuotation(_ context.Context, orgID, quotationID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for i := range m.bookings {
		b := &m.bookings[i]
		if b.OrganizationID == orgID && b.QuotationID != nil && *b.QuotationID == quotationID && b.Status == repository.StatusReserved {
			b.Status = repository.StatusRemoved
			b.RemovedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ListByQuotation(_ context.Context, orgID, quotationID uuid.UUID) ([]repository.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Booking
	for _, b := range m.bookings {
		if b.OrganizationID == orgID && b.QuotationID != nil && *b.QuotationID == quotationID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) ListByEvent(_ context.Context, orgID, eventID uuid.UUID) ([]repository.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Booking
	for _, b := range m.bookings {
		if b.OrganizationID == orgID && b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestReserveBookingIsIdempotent(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, logger.New("test"))
	orgID, eventID, quotationID := uuid.New(), uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		if err := svc.ReserveBooking(context.Background(), orgID, eventID, quotationID); err != nil {
			t.Fatalf("reserve run %d: %v", i, err)
		}
	}

	items, err := svc.ListBookings(context.Background(), orgID, quotationID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(items))
	}
}

func TestRemoveBookingsThenReserveAgain(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, logger.New("test"))
	orgID, eventID, quotationID := uuid.New(), uuid.New(), uuid.New()

	if err := svc.ReserveBooking(context.Background(), orgID, eventID, quotationID); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.RemoveBookings(context.Background(), orgID, quotationID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RemoveBookings(context.Background(), orgID, quotationID); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if err := svc.ReserveBooking(context.Background(), orgID, eventID, quotationID); err != nil {
		t.Fatalf("reserve again: %v", err)
	}

	items, _ := svc.ListBookings(context.Background(), orgID, quotationID)
	if len(items) != 2 {
		t.Fatalf("expected removed and new booking, got %d", len(items))
	}
	if items[0].Status != repository.StatusRemoved || items[1].Status != repository.StatusReserved {
		t.Fatalf("unexpected statuses: %s, %s", items[0].Status, items[1].Status)
	}
}

func TestListByEvent(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, logger.New("test"))
	orgID, eventID := uuid.New(), uuid.New()
	_ = svc.ReserveBooking(context.Background(), orgID, eventID, uuid.New())

	resp, err := svc.List(context.Background(), orgID, nil, &eventID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Wedding" {
		t.Fatalf("unexpected list: %+v", resp.Items)
	}
}
