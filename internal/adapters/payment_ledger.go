package adapters

import (
	"context"

	paysvc "eventquote_backend/internal/payments/service"
	quotesvc "eventquote_backend/internal/quotations/service"

	"github.com/google/uuid"
)

// PaymentLedger adapts the payments service for quotation cascades.
type PaymentLedger struct {
	svc *paysvc.Service
}

func NewPaymentLedger(svc *paysvc.Service) *PaymentLedger {
	return &PaymentLedger{svc: svc}
}

func (a *PaymentLedger) ListPayments(ctx context.Context, orgID, quotationID uuid.UUID) ([]quotesvc.PaymentInfo, error) {
	items, err := a.svc.ListPayments(ctx, orgID, quotationID)
	if err != nil {
		return nil, err
	}
	result := make([]quotesvc.PaymentInfo, len(items))
	for i, p := range items {
		result[i] = quotesvc.PaymentInfo{
			ID:         p.ID,
			Amount:     p.Amount,
			Method:     p.Method,
			Status:     p.Status,
			ReceivedAt: p.ReceivedAt,
		}
	}
	return result, nil
}

func (a *PaymentLedger) VoidPayments(ctx context.Context, orgID, quotationID uuid.UUID) error {
	return a.svc.VoidPayments(ctx, orgID, quotationID)
}

var _ quotesvc.PaymentLedger = (*PaymentLedger)(nil)
