// Package service manages payments linked to quotations and voids them when
// an approved quotation is cancelled.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventquote_backend/internal/payments/gateway"
	"eventquote_backend/internal/payments/repository"
	"eventquote_backend/internal/payments/transport"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence port of the payments service.
type Store interface {
	Create(ctx context.Context, p *repository.Payment) error
	ListByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) ([]repository.Payment, error)
	ListReceivedByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) ([]repository.Payment, error)
	RecordRefund(ctx context.Context, orgID, paymentID uuid.UUID, refundID string) error
	MarkVoided(ctx context.Context, orgID, paymentID uuid.UUID, at time.Time) error
}

// Service provides payment operations.
type Service struct {
	repo    Store
	gateway gateway.Refunder
	log     *logger.Logger
}

// New creates a new payments service. refunder may be nil, in which case
// provider payments are voided locally only.
func New(repo Store, refunder gateway.Refunder, log *logger.Logger) *Service {
	return &Service{repo: repo, gateway: refunder, log: log}
}

// RecordPayment registers money received for an event.
func (s *Service) RecordPayment(ctx context.Context, orgID uuid.UUID, req transport.RecordPaymentRequest) (*transport.PaymentResponse, error) {
	p := &repository.Payment{
		OrganizationID:    orgID,
		EventID:           req.EventID,
		QuotationID:       req.QuotationID,
		Amount:            req.Amount,
		Method:            strings.TrimSpace(req.Method),
		ProviderPaymentID: req.ProviderPaymentID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("payment recorded", "id", p.ID, "eventId", p.EventID, "amount", p.Amount.StringFixed(2))
	resp := toResponse(p)
	return &resp, nil
}

// ListPayments returns every payment linked to the quotation.
func (s *Service) ListPayments(ctx context.Context, orgID, quotationID uuid.UUID) ([]repository.Payment, error) {
	return s.repo.ListByQuotation(ctx, orgID, quotationID)
}

// ListPaymentResponses is ListPayments shaped for HTTP.
func (s *Service) ListPaymentResponses(ctx context.Context, orgID, quotationID uuid.UUID) ([]transport.PaymentResponse, error) {
	items, err := s.repo.ListByQuotation(ctx, orgID, quotationID)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.PaymentResponse, len(items))
	for i := range items {
		resp[i] = toResponse(&items[i])
	}
	return resp, nil
}

// VoidPayments voids every received payment of the quotation. Provider
// payments are refunded first and the refund id is stored before voiding.
// Each payment is voided on its own, so a retry after a partial failure only
// touches what is still received and never refunds a payment twice.
func (s *Service) VoidPayments(ctx context.Context, orgID, quotationID uuid.UUID) error {
	received, err := s.repo.ListReceivedByQuotation(ctx, orgID, quotationID)
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range received {
		if p.ProviderPaymentID != nil && *p.ProviderPaymentID != "" && s.gateway != nil && p.RefundID == nil {
			refundID, err := s.gateway.Refund(ctx, *p.ProviderPaymentID)
			if err != nil {
				errs = append(errs, fmt.Errorf("payment %s: %w", p.ID, err))
				continue
			}
			s.log.Info("payment refunded at provider", "id", p.ID, "refundId", refundID)
			if err := s.repo.RecordRefund(ctx, orgID, p.ID, refundID); err != nil {
				s.log.Error("refund not recorded", "id", p.ID, "refundId", refundID, "error", err)
				errs = append(errs, err)
			}
		}

		if err := s.repo.MarkVoided(ctx, orgID, p.ID, time.Now()); err != nil {
			errs = append(errs, err)
			continue
		}
		s.log.Info("payment voided", "id", p.ID, "quotationId", quotationID)
	}

	return errors.Join(errs...)
}

func toResponse(p *repository.Payment) transport.PaymentResponse {
	return transport.PaymentResponse{
		ID:                p.ID,
		EventID:           p.EventID,
		QuotationID:       p.QuotationID,
		Amount:            p.Amount.StringFixed(2),
		Method:            p.Method,
		Status:            p.Status,
		ProviderPaymentID: p.ProviderPaymentID,
		RefundID:          p.RefundID,
		ReceivedAt:        p.ReceivedAt,
		VoidedAt:          p.VoidedAt,
	}
}
