package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// LineRequest is one selected service line. Without CatalogServiceID the line
// is custom and must carry a name and a unit price.
type LineRequest struct {
	CatalogServiceID *uuid.UUID       `json:"catalogServiceId,omitempty"`
	Name             string           `json:"name,omitempty" validate:"required_without=CatalogServiceID,max=200"`
	SectionName      string           `json:"sectionName,omitempty" validate:"max=200"`
	CategoryName     string           `json:"categoryName,omitempty" validate:"max=200"`
	UtilityType      string           `json:"utilityType,omitempty" validate:"omitempty,oneof=service product"`
	UnitPrice        *decimal.Decimal `json:"unitPrice,omitempty" validate:"omitempty,money"`
	ManualUnitPrice  *decimal.Decimal `json:"manualUnitPrice,omitempty" validate:"omitempty,money"`
	Quantity         int              `json:"quantity" validate:"required,min=1"`
}

// CostRequest is one additional cost.
type CostRequest struct {
	Name   string          `json:"name" validate:"required,max=200"`
	Amount decimal.Decimal `json:"amount" validate:"money"`
	Kind   string          `json:"kind" validate:"required,oneof=session event discount"`
}

// CalculateRequest asks for totals without persisting anything.
type CalculateRequest struct {
	CommercialConditionID *uuid.UUID    `json:"commercialConditionId,omitempty"`
	PaymentMethod         string        `json:"paymentMethod,omitempty" validate:"max=50"`
	Lines                 []LineRequest `json:"lines" validate:"dive"`
	Costs                 []CostRequest `json:"costs" validate:"dive"`
}

// SubmitQuotationRequest persists a quotation snapshot in one call.
type SubmitQuotationRequest struct {
	EventID               uuid.UUID        `json:"eventId" validate:"required"`
	Name                  string           `json:"name" validate:"required,max=200"`
	Description           *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	CommercialConditionID *uuid.UUID       `json:"commercialConditionId,omitempty"`
	PaymentMethod         string           `json:"paymentMethod,omitempty" validate:"max=50"`
	VisibleToClient       bool             `json:"visibleToClient"`
	Lines                 []LineRequest    `json:"lines" validate:"required,min=1,dive"`
	Costs                 []CostRequest    `json:"costs" validate:"dive"`
	ManualTotal           *decimal.Decimal `json:"manualTotal,omitempty" validate:"omitempty,money"`
	ConfirmGuardrail      bool             `json:"confirmGuardrail"`
}

// CreateDraftRequest starts an editing session. QuotationID edits an existing
// quotation; PackageTotal starts from a package with a fixed price.
type CreateDraftRequest struct {
	QuotationID           *uuid.UUID       `json:"quotationId,omitempty"`
	EventID               *uuid.UUID       `json:"eventId,omitempty" validate:"required_without=QuotationID"`
	Name                  string           `json:"name,omitempty" validate:"max=200"`
	Description           *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	CommercialConditionID *uuid.UUID       `json:"commercialConditionId,omitempty"`
	PaymentMethod         string           `json:"paymentMethod,omitempty" validate:"max=50"`
	VisibleToClient       bool             `json:"visibleToClient"`
	Lines                 []LineRequest    `json:"lines" validate:"dive"`
	Costs                 []CostRequest    `json:"costs" validate:"dive"`
	PackageTotal          *decimal.Decimal `json:"packageTotal,omitempty" validate:"omitempty,money"`
}

// UpdateDraftLinesRequest replaces the lines and costs of a draft.
type UpdateDraftLinesRequest struct {
	CommercialConditionID *uuid.UUID    `json:"commercialConditionId,omitempty"`
	PaymentMethod         *string       `json:"paymentMethod,omitempty" validate:"omitempty,max=50"`
	Lines                 []LineRequest `json:"lines" validate:"dive"`
	Costs                 []CostRequest `json:"costs" validate:"dive"`
}

// UpdateDraftDetailsRequest changes the descriptive fields of a draft.
type UpdateDraftDetailsRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	VisibleToClient *bool   `json:"visibleToClient,omitempty"`
}

// ProposeTotalRequest pins a manual total.
type ProposeTotalRequest struct {
	Total decimal.Decimal `json:"total" validate:"money"`
}

// TransitionRequest asks the state machine to apply an action.
type TransitionRequest struct {
	Action string `json:"action" validate:"required,oneof=authorize approve cancel reject"`
}

// ListQuotationsRequest contains query params for listing quotations
type ListQuotationsRequest struct {
	EventID         string `form:"eventId" validate:"omitempty,uuid"`
	Status          string `form:"status" validate:"omitempty,oneof=pending authorized approved cancelled rejected"`
	IncludeArchived bool   `form:"includeArchived"`
	Search          string `form:"search" validate:"max=100"`
	SortBy          string `form:"sortBy" validate:"omitempty,oneof=name status total createdAt updatedAt"`
	SortOrder       string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page            int    `form:"page" validate:"omitempty,min=1"`
	PageSize        int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// PricedLineResponse is a resolved line with its pricing breakdown.
type PricedLineResponse struct {
	CatalogServiceID *uuid.UUID `json:"catalogServiceId,omitempty"`
	Name             string     `json:"name"`
	SectionName      string     `json:"sectionName"`
	CategoryName     string     `json:"categoryName"`
	UtilityType      string     `json:"utilityType"`
	IsCustom         bool       `json:"isCustom"`
	IsManualPrice    bool       `json:"isManualPrice"`
	Quantity         int        `json:"quantity"`
	UnitPrice        string     `json:"unitPrice"`
	SystemPrice      *string    `json:"systemPrice,omitempty"`
	PublishedPrice   *string    `json:"publishedPrice,omitempty"`
	UnitCost         string     `json:"unitCost"`
	UnitOverhead     string     `json:"unitOverhead"`
	UnitUtility      string     `json:"unitUtility"`
	LineTotal        string     `json:"lineTotal"`
}

// TotalsResponse is the result of computeTotals.
type TotalsResponse struct {
	Subtotal  string               `json:"subtotal"`
	NetCosts  string               `json:"netCosts"`
	Total     string               `json:"total"`
	Mode      string               `json:"mode"`
	CostTotal string               `json:"costTotal"`
	Lines     []PricedLineResponse `json:"lines"`
}

// DraftResponse exposes the state of an editing session.
type DraftResponse struct {
	ID                    uuid.UUID            `json:"id"`
	Origin                string               `json:"origin"`
	QuotationID           *uuid.UUID           `json:"quotationId,omitempty"`
	EventID               uuid.UUID            `json:"eventId"`
	Name                  string               `json:"name"`
	Description           *string              `json:"description,omitempty"`
	CommercialConditionID *uuid.UUID           `json:"commercialConditionId,omitempty"`
	PaymentMethod         string               `json:"paymentMethod,omitempty"`
	VisibleToClient       bool                 `json:"visibleToClient"`
	Mode                  string               `json:"mode"`
	Subtotal              string               `json:"subtotal"`
	NetCosts              string               `json:"netCosts"`
	Total                 string               `json:"total"`
	CostTotal             string               `json:"costTotal"`
	PinnedTotal           *string              `json:"pinnedTotal,omitempty"`
	ReferenceTotal        *string              `json:"referenceTotal,omitempty"`
	PendingTotal          *string              `json:"pendingTotal,omitempty"`
	TotalEditInProgress   bool                 `json:"totalEditInProgress"`
	Analysis              interface{}          `json:"analysis,omitempty"`
	Lines                 []PricedLineResponse `json:"lines"`
	Costs                 []CostResponse       `json:"costs"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

// CostResponse is a persisted or draft additional cost.
type CostResponse struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
	Position int    `json:"position"`
}

// LineSnapshotResponse is a persisted, immutable quotation line.
type LineSnapshotResponse struct {
	ID               uuid.UUID  `json:"id"`
	CatalogServiceID *uuid.UUID `json:"catalogServiceId,omitempty"`
	SectionName      string     `json:"sectionName"`
	CategoryName     string     `json:"categoryName"`
	ItemName         string     `json:"itemName"`
	UnitPrice        string     `json:"unitPrice"`
	UnitCost         string     `json:"unitCost"`
	UnitOverhead     string     `json:"unitOverhead"`
	UnitUtility      string     `json:"unitUtility"`
	PublishedPrice   *string    `json:"publishedPrice,omitempty"`
	UtilityType      string     `json:"utilityType"`
	IsCustom         bool       `json:"isCustom"`
	Quantity         int        `json:"quantity"`
	LineTotal        string     `json:"lineTotal"`
	Position         int        `json:"position"`
}

// QuotationResponse is the full quotation with its snapshot.
type QuotationResponse struct {
	ID                    uuid.UUID              `json:"id"`
	EventID               uuid.UUID              `json:"eventId"`
	Name                  string                 `json:"name"`
	Description           *string                `json:"description,omitempty"`
	CommercialConditionID *uuid.UUID             `json:"commercialConditionId,omitempty"`
	PaymentMethod         *string                `json:"paymentMethod,omitempty"`
	Subtotal              string                 `json:"subtotal"`
	NetCosts              string                 `json:"netCosts"`
	Total                 string                 `json:"total"`
	PriceMode             string                 `json:"priceMode"`
	Status                string                 `json:"status"`
	VisibleToClient       bool                   `json:"visibleToClient"`
	ArchivedAt            *time.Time             `json:"archivedAt,omitempty"`
	Lines                 []LineSnapshotResponse `json:"lines"`
	Costs                 []CostResponse         `json:"costs"`
	Analysis              interface{}            `json:"analysis,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

// QuotationSummaryResponse is a list row without lines.
type QuotationSummaryResponse struct {
	ID              uuid.UUID  `json:"id"`
	EventID         uuid.UUID  `json:"eventId"`
	Name            string     `json:"name"`
	Total           string     `json:"total"`
	PriceMode       string     `json:"priceMode"`
	Status          string     `json:"status"`
	VisibleToClient bool       `json:"visibleToClient"`
	ArchivedAt      *time.Time `json:"archivedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// QuotationListResponse is a paginated list of quotations
type QuotationListResponse struct {
	Items      []QuotationSummaryResponse `json:"items"`
	Total      int                        `json:"total"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"pageSize"`
	TotalPages int                        `json:"totalPages"`
}

// StepResultResponse reports one cascade step.
type StepResultResponse struct {
	Step       string    `json:"step"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Attempts   int       `json:"attempts"`
	FinishedAt time.Time `json:"finishedAt"`
}

// TransitionResponse is the result of transition(quotationId, action).
type TransitionResponse struct {
	QuotationID       uuid.UUID            `json:"quotationId"`
	Status            string               `json:"status"`
	Partial           bool                 `json:"partial"`
	RunID             *uuid.UUID           `json:"runId,omitempty"`
	SideEffectResults []StepResultResponse `json:"sideEffectResults"`
}

// CascadeRunResponse is a journaled cascade run.
type CascadeRunResponse struct {
	ID         uuid.UUID            `json:"id"`
	Action     string               `json:"action"`
	FromStatus string               `json:"fromStatus"`
	ToStatus   string               `json:"toStatus"`
	Partial    bool                 `json:"partial"`
	Steps      []StepResultResponse `json:"steps"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// PaymentWarning lists a payment that survives a delete.
type PaymentWarning struct {
	ID         uuid.UUID `json:"id"`
	Amount     string    `json:"amount"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// BookingWarning lists a booking that survives a delete.
type BookingWarning struct {
	ID       uuid.UUID  `json:"id"`
	Title    string     `json:"title"`
	Status   string     `json:"status"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
}

// DeleteCheckResponse is the pre-delete dependency report.
type DeleteCheckResponse struct {
	QuotationID          uuid.UUID        `json:"quotationId"`
	Status               string           `json:"status"`
	Payments             []PaymentWarning `json:"payments"`
	Bookings             []BookingWarning `json:"bookings"`
	Warnings             []string         `json:"warnings"`
	CanArchive           bool             `json:"canArchive"`
	RequiresConfirmation bool             `json:"requiresConfirmation"`
}

// ArchiveResponse reports an archived quotation.
type ArchiveResponse struct {
	QuotationID uuid.UUID `json:"quotationId"`
	ArchivedAt  time.Time `json:"archivedAt"`
	DocumentKey string    `json:"documentKey,omitempty"`
}

// CatalogServiceResponse is a catalog entry with its current system price.
type CatalogServiceResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	SectionName    string    `json:"sectionName"`
	CategoryName   string    `json:"categoryName"`
	UnitCost       string    `json:"unitCost"`
	UnitOverhead   string    `json:"unitOverhead"`
	UtilityType    string    `json:"utilityType"`
	PublishedPrice *string   `json:"publishedPrice,omitempty"`
	SystemPrice    string    `json:"systemPrice"`
}
