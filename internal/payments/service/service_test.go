package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eventquote_backend/internal/payments/repository"
	"eventquote_backend/internal/payments/transport"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu        sync.Mutex
	payments  []repository.Payment
	failVoids int
}

func (m *memoryStore) Create(_ context.Context, p *repository.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.Status = repository.StatusReceived
	p.ReceivedAt = time.Now()
	m.payments = append(m.payments, *p)
	return nil
}

func (m *memoryStore) ListByQuotation(_ context.Context, orgID, quotationID uuid.UUID) ([]repository.Payment, error) {
	return m.filter(orgID, quotationID, ""), nil
}

func (m *memoryStore) ListReceivedByQuotation(_ context.Context, orgID, quotationID uuid.UUID) ([]repository.Payment, error) {
	return m.filter(orgID, quotationID, repository.StatusReceived), nil
}

func (m *memoryStore) RecordRefund(_ context.Context, orgID, paymentID uuid.UUID, refundID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.payments {
		p := &m.payments[i]
		if p.ID == paymentID && p.OrganizationID == orgID && p.RefundID == nil {
			id := refundID
			p.RefundID = &id
		}
	}
	return nil
}

func (m *memoryStore) MarkVoided(_ context.Context, orgID, paymentID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failVoids > 0 {
		m.failVoids--
		return errors.New("connection reset")
	}
	for i := range m.payments {
		p := &m.payments[i]
		if p.ID == paymentID && p.OrganizationID == orgID && p.Status == repository.StatusReceived {
			p.Status = repository.StatusVoided
			p.VoidedAt = &at
		}
	}
	return nil
}

func (m *memoryStore) filter(orgID, quotationID uuid.UUID, status string) []repository.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Payment
	for _, p := range m.payments {
		if p.OrganizationID != orgID || p.QuotationID == nil || *p.QuotationID != quotationID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out
}

type fakeRefunder struct {
	calls   []string
	failFor string
}

func (f *fakeRefunder) Refund(_ context.Context, providerPaymentID string) (string, error) {
	f.calls = append(f.calls, providerPaymentID)
	if providerPaymentID == f.failFor {
		return "", errors.New("provider unavailable")
	}
	return "r-" + providerPaymentID, nil
}

func strPtr(s string) *string { return &s }

func record(t *testing.T, svc *Service, orgID, quotationID uuid.UUID, providerID *string) {
	t.Helper()
	_, err := svc.RecordPayment(context.Background(), orgID, transport.RecordPaymentRequest{
		EventID:           uuid.New(),
		QuotationID:       &quotationID,
		Amount:            decimal.RequireFromString("150.00"),
		Method:            " card ",
		ProviderPaymentID: providerID,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
}

func TestVoidPaymentsRefundsProviderPayments(t *testing.T) {
	store := &memoryStore{}
	refunder := &fakeRefunder{}
	svc := New(store, refunder, logger.New("test"))
	orgID, quotationID := uuid.New(), uuid.New()

	record(t, svc, orgID, quotationID, strPtr("1001"))
	record(t, svc, orgID, quotationID, nil)

	if err := svc.VoidPayments(context.Background(), orgID, quotationID); err != nil {
		t.Fatalf("void: %v", err)
	}
	if len(refunder.calls) != 1 || refunder.calls[0] != "1001" {
		t.Fatalf("expected one refund for 1001, got %v", refunder.calls)
	}

	items, _ := svc.ListPayments(context.Background(), orgID, quotationID)
	for _, p := range items {
		if p.Status != repository.StatusVoided {
			t.Fatalf("payment %s still %s", p.ID, p.Status)
		}
	}
}

func TestVoidPaymentsIsIdempotent(t *testing.T) {
	store := &memoryStore{}
	refunder := &fakeRefunder{}
	svc := New(store, refunder, logger.New("test"))
	orgID, quotationID := uuid.New(), uuid.New()
	record(t, svc, orgID, quotationID, strPtr("2002"))

	for i := 0; i < 2; i++ {
		if err := svc.VoidPayments(context.Background(), orgID, quotationID); err != nil {
			t.Fatalf("void run %d: %v", i, err)
		}
	}
	if len(refunder.calls) != 1 {
		t.Fatalf("expected a single refund across retries, got %d", len(refunder.calls))
	}
}

func TestVoidPaymentsRetryAfterVoidFailureDoesNotRefundAgain(t *testing.T) {
	store := &memoryStore{failVoids: 1}
	refunder := &fakeRefunder{}
	svc := New(store, refunder, logger.New("test"))
	orgID, quotationID := uuid.New(), uuid.New()
	record(t, svc, orgID, quotationID, strPtr("4004"))

	if err := svc.VoidPayments(context.Background(), orgID, quotationID); err == nil {
		t.Fatalf("expected the failed void to surface")
	}
	received, _ := store.ListReceivedByQuotation(context.Background(), orgID, quotationID)
	if len(received) != 1 || received[0].RefundID == nil || *received[0].RefundID != "r-4004" {
		t.Fatalf("expected the refund recorded on the still received payment, got %+v", received)
	}

	if err := svc.VoidPayments(context.Background(), orgID, quotationID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(refunder.calls) != 1 {
		t.Fatalf("expected exactly one refund call, got %v", refunder.calls)
	}
	items, _ := svc.ListPaymentResponses(context.Background(), orgID, quotationID)
	if len(items) != 1 || items[0].Status != repository.StatusVoided || items[0].RefundID == nil {
		t.Fatalf("expected a voided payment carrying its refund, got %+v", items)
	}
}

func TestVoidPaymentsKeepsFailedRefundReceived(t *testing.T) {
	store := &memoryStore{}
	refunder := &fakeRefunder{failFor: "3003"}
	svc := New(store, refunder, logger.New("test"))
	orgID, quotationID := uuid.New(), uuid.New()
	record(t, svc, orgID, quotationID, strPtr("3003"))
	record(t, svc, orgID, quotationID, strPtr("3004"))

	if err := svc.VoidPayments(context.Background(), orgID, quotationID); err == nil {
		t.Fatalf("expected error when a refund fails")
	}

	received, _ := store.ListReceivedByQuotation(context.Background(), orgID, quotationID)
	if len(received) != 1 || *received[0].ProviderPaymentID != "3003" {
		t.Fatalf("expected only 3003 to remain received, got %+v", received)
	}
}

func TestRecordPaymentTrimsMethod(t *testing.T) {
	svc := New(&memoryStore{}, nil, logger.New("test"))
	orgID, quotationID := uuid.New(), uuid.New()
	record(t, svc, orgID, quotationID, nil)

	items, err := svc.ListPaymentResponses(context.Background(), orgID, quotationID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Method != "card" || items[0].Amount != "150.00" {
		t.Fatalf("unexpected payment response: %+v", items)
	}
}
