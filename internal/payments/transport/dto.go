package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	EventID           uuid.UUID       `json:"eventId" validate:"required"`
	QuotationID       *uuid.UUID      `json:"quotationId,omitempty"`
	Amount            decimal.Decimal `json:"amount" validate:"required,money"`
	Method            string          `json:"method" validate:"required,max=50"`
	ProviderPaymentID *string         `json:"providerPaymentId,omitempty" validate:"omitempty,numeric,max=30"`
}

type ListPaymentsRequest struct {
	QuotationID string `form:"quotationId" validate:"required,uuid"`
}

type PaymentResponse struct {
	ID                uuid.UUID  `json:"id"`
	EventID           uuid.UUID  `json:"eventId"`
	QuotationID       *uuid.UUID `json:"quotationId,omitempty"`
	Amount            string     `json:"amount"`
	Method            string     `json:"method"`
	Status            string     `json:"status"`
	ProviderPaymentID *string    `json:"providerPaymentId,omitempty"`
	RefundID          *string    `json:"refundId,omitempty"`
	ReceivedAt        time.Time  `json:"receivedAt"`
	VoidedAt          *time.Time `json:"voidedAt,omitempty"`
}
