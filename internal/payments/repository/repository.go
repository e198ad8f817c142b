// Package repository stores payments received for events.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	StatusReceived = "received"
	StatusVoided   = "voided"
)

// Payment is money received against an event, optionally tied to a quotation.
type Payment struct {
	ID                uuid.UUID       `db:"id"`
	OrganizationID    uuid.UUID       `db:"organization_id"`
	EventID           uuid.UUID       `db:"event_id"`
	QuotationID       *uuid.UUID      `db:"quotation_id"`
	Amount            decimal.Decimal `db:"amount"`
	Method            string          `db:"method"`
	Status            string          `db:"status"`
	ProviderPaymentID *string         `db:"provider_payment_id"`
	RefundID          *string         `db:"refund_id"`
	ReceivedAt        time.Time       `db:"received_at"`
	VoidedAt          *time.Time      `db:"voided_at"`
}

// Repository provides payment storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new payments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, organization_id, event_id, quotation_id, amount, method, status, provider_payment_id, refund_id, received_at, voided_at`

// Create records a received payment.
func (r *Repository) Create(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Status = StatusReceived
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, organization_id, event_id, quotation_id, amount, method, status, provider_payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING received_at`,
		p.ID, p.OrganizationID, p.EventID, p.QuotationID, p.Amount, p.Method, p.Status, p.ProviderPaymentID,
	).Scan(&p.ReceivedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ListByQuotation returns every payment linked to a quotation, voided included.
func (r *Repository) ListByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) ([]Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE organization_id = $1 AND quotation_id = $2
		ORDER BY received_at`, orgID, quotationID)
}

// ListReceivedByQuotation returns the payments that still count as received.
func (r *Repository) ListReceivedByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) ([]Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE organization_id = $1 AND quotation_id = $2 AND status = 'received'
		ORDER BY received_at`, orgID, quotationID)
}

// MarkVoided flags one payment as voided. A payment that is already voided is left untouched.
func (r *Repository) MarkVoided(ctx context.Context, orgID, paymentID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'voided', voided_at = $3
		WHERE id = $1 AND organization_id = $2 AND status = 'received'`,
		paymentID, orgID, at,
	)
	if err != nil {
		return fmt.Errorf("void payment: %w", err)
	}
	return nil
}

// RecordRefund stores the provider refund of a payment. A refund that was
// already recorded is kept.
func (r *Repository) RecordRefund(ctx context.Context, orgID, paymentID uuid.UUID, refundID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET refund_id = $3
		WHERE id = $1 AND organization_id = $2 AND refund_id IS NULL`,
		paymentID, orgID, refundID,
	)
	if err != nil {
		return fmt.Errorf("record refund: %w", err)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	items := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.OrganizationID, &p.EventID, &p.QuotationID, &p.Amount, &p.Method,
			&p.Status, &p.ProviderPaymentID, &p.RefundID, &p.ReceivedAt, &p.VoidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return items, nil
}
