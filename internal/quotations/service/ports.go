package service

import (
	"context"
	"time"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence the quotations service needs. It is implemented by
// *repository.Repository.
type Store interface {
	CreateWithLines(ctx context.Context, q *repository.Quotation, lines []repository.QuotationLine, costs []repository.QuotationCost) error
	ReplaceWithLines(ctx context.Context, q *repository.Quotation, lines []repository.QuotationLine, costs []repository.QuotationCost) error
	GetByID(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*repository.Quotation, error)
	GetLines(ctx context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]repository.QuotationLine, error)
	GetCosts(ctx context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]repository.QuotationCost, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, from, to string) error
	FindActiveForEvent(ctx context.Context, orgID, eventID, excludeID uuid.UUID) (*repository.Quotation, error)
	Delete(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
	Archive(ctx context.Context, id uuid.UUID, orgID uuid.UUID, at time.Time) error
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)

	CreateCascadeRun(ctx context.Context, run *repository.CascadeRun) error
	UpdateCascadeStep(ctx context.Context, orgID uuid.UUID, step repository.CascadeStep) (bool, error)
	GetCascadeRun(ctx context.Context, runID uuid.UUID, orgID uuid.UUID) (*repository.CascadeRun, error)
	ListCascadeRuns(ctx context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]repository.CascadeRun, error)
}

var _ Store = (*repository.Repository)(nil)

// CatalogService is the slice of a catalog entry the pricing engine reads.
type CatalogService struct {
	ID             uuid.UUID
	Name           string
	SectionName    string
	CategoryName   string
	UnitCost       decimal.Decimal
	UnitOverhead   decimal.Decimal
	UtilityType    pricing.UtilityType
	PublishedPrice *decimal.Decimal
	EventTypeID    *uuid.UUID
}

// CatalogReader provides catalog entries without importing the catalog domain.
type CatalogReader interface {
	FetchCatalog(ctx context.Context, orgID uuid.UUID, eventTypeID *uuid.UUID) ([]CatalogService, error)
	GetServicesByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]CatalogService, error)
}

// PricingConfigReader provides the organization's pricing configuration.
type PricingConfigReader interface {
	FetchPricingConfiguration(ctx context.Context, orgID uuid.UUID) (pricing.Configuration, error)
}

// EventStageWriter moves the event of a quotation through the sales pipeline.
type EventStageWriter interface {
	AdvanceEventStage(ctx context.Context, orgID, eventID uuid.UUID, stage string, quotationID uuid.UUID, actorID uuid.UUID) error
	RevertEventStage(ctx context.Context, orgID, eventID uuid.UUID, stage string, quotationID uuid.UUID, actorID uuid.UUID) error
}

// PaymentInfo is a payment recorded against a quotation.
type PaymentInfo struct {
	ID         uuid.UUID
	Amount     decimal.Decimal
	Method     string
	Status     string
	ReceivedAt time.Time
}

// PaymentLedger lists and voids the payments of a quotation.
type PaymentLedger interface {
	ListPayments(ctx context.Context, orgID, quotationID uuid.UUID) ([]PaymentInfo, error)
	VoidPayments(ctx context.Context, orgID, quotationID uuid.UUID) error
}

// BookingInfo is a calendar booking tied to a quotation.
type BookingInfo struct {
	ID       uuid.UUID
	Title    string
	Status   string
	StartsAt *time.Time
}

// BookingManager reserves and removes the bookings of a quotation. Both
// mutations must be idempotent.
type BookingManager interface {
	ReserveBooking(ctx context.Context, orgID, eventID, quotationID uuid.UUID) error
	RemoveBookings(ctx context.Context, orgID, quotationID uuid.UUID) error
	ListBookings(ctx context.Context, orgID, quotationID uuid.UUID) ([]BookingInfo, error)
}

// DraftStore keeps serialized drafts. Implementations apply their own expiry.
type DraftStore interface {
	SaveDraft(ctx context.Context, orgID, draftID uuid.UUID, payload []byte) error
	LoadDraft(ctx context.Context, orgID, draftID uuid.UUID) ([]byte, error)
	DeleteDraft(ctx context.Context, orgID, draftID uuid.UUID) error
}

// ArchiveStore keeps the document of an archived quotation and returns its key.
type ArchiveStore interface {
	StoreQuotationSnapshot(ctx context.Context, orgID, quotationID uuid.UUID, body []byte) (string, error)
}

// CascadeRetry identifies a failed cascade step to run again later.
type CascadeRetry struct {
	RunID          uuid.UUID `json:"runId"`
	QuotationID    uuid.UUID `json:"quotationId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Step           string    `json:"step"`
	Attempt        int       `json:"attempt"`
}

// CascadeRetryScheduler enqueues a delayed retry of a failed cascade step.
type CascadeRetryScheduler interface {
	ScheduleCascadeRetry(ctx context.Context, retry CascadeRetry) error
}
