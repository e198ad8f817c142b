package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListBookingsRequest filters bookings by quotation or event. One is required.
type ListBookingsRequest struct {
	QuotationID string `form:"quotationId" validate:"omitempty,uuid"`
	EventID     string `form:"eventId" validate:"omitempty,uuid"`
}

type BookingResponse struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"eventId"`
	QuotationID *uuid.UUID `json:"quotationId,omitempty"`
	Title       string     `json:"title"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RemovedAt   *time.Time `json:"removedAt,omitempty"`
}

type BookingListResponse struct {
	Items []BookingResponse `json:"items"`
}
