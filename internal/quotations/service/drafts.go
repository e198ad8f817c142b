package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draft is an unsaved quotation together with its editing session. Drafts
// live in the DraftStore and are removed on submit.
type Draft struct {
	ID                    uuid.UUID               `json:"id"`
	OrganizationID        uuid.UUID               `json:"organizationId"`
	QuotationID           *uuid.UUID              `json:"quotationId,omitempty"`
	EventID               uuid.UUID               `json:"eventId"`
	Name                  string                  `json:"name"`
	Description           *string                 `json:"description,omitempty"`
	CommercialConditionID *uuid.UUID              `json:"commercialConditionId,omitempty"`
	PaymentMethod         string                  `json:"paymentMethod,omitempty"`
	VisibleToClient       bool                    `json:"visibleToClient"`
	Lines                 []transport.LineRequest `json:"lines"`
	Costs                 []transport.CostRequest `json:"costs"`
	Session               pricing.EditingSession  `json:"session"`
	CreatedBy             uuid.UUID               `json:"createdBy"`
	UpdatedAt             time.Time               `json:"updatedAt"`
}

func (d *Draft) pricingInput() pricingInput {
	return pricingInput{
		CommercialConditionID: d.CommercialConditionID,
		PaymentMethod:         d.PaymentMethod,
		Lines:                 d.Lines,
		Costs:                 d.Costs,
	}
}

// CreateDraft starts an editing session. Editing an existing quotation
// carries its snapshot prices and uses its total as the guardrail reference;
// a package total starts the session pinned to the package price.
func (s *Service) CreateDraft(ctx context.Context, orgID uuid.UUID, actorID uuid.UUID, req transport.CreateDraftRequest) (*transport.DraftResponse, error) {
	draft := &Draft{
		ID:                    uuid.New(),
		OrganizationID:        orgID,
		Name:                  sanitize.Text(req.Name),
		Description:           sanitize.TextPtr(req.Description),
		CommercialConditionID: req.CommercialConditionID,
		PaymentMethod:         req.PaymentMethod,
		VisibleToClient:       req.VisibleToClient,
		Lines:                 req.Lines,
		Costs:                 req.Costs,
		CreatedBy:             actorID,
	}

	if req.QuotationID == nil && req.EventID == nil {
		return nil, apperr.Validation("eventId is required").WithDetails(pricing.FieldErrors{"eventId": "required without quotationId"})
	}

	seed := pricing.SessionSeed{Origin: pricing.OriginNew}
	switch {
	case req.QuotationID != nil:
		q, err := s.loadEditable(ctx, *req.QuotationID, orgID)
		if err != nil {
			return nil, err
		}
		if err := s.carrySnapshot(ctx, draft, q); err != nil {
			return nil, err
		}
		reference := q.Total
		seed = pricing.SessionSeed{
			Origin:          pricing.OriginEdit,
			HistoricalTotal: &reference,
			Pinned:          q.PriceMode == string(pricing.ModeManual),
		}
	case req.PackageTotal != nil:
		draft.EventID = *req.EventID
		packageTotal := *req.PackageTotal
		seed = pricing.SessionSeed{
			Origin:          pricing.OriginPackage,
			HistoricalTotal: &packageTotal,
			Pinned:          true,
		}
	default:
		draft.EventID = *req.EventID
	}

	sel, err := s.price(ctx, orgID, draft.pricingInput())
	if err != nil {
		return nil, err
	}
	seed.Totals = sel.Totals
	seed.CostTotal = sel.CostTotal

	resolver := pricing.NewResolver(sel.Config.Guardrail)
	session, err := resolver.NewSession(seed)
	if err != nil {
		return nil, err
	}
	draft.Session = *session

	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}
	s.log.Info("quotation draft created", "id", draft.ID, "origin", session.Origin, "mode", session.Mode)
	return toDraftResponse(draft, sel), nil
}

// carrySnapshot copies the persisted lines and costs of q into the draft.
// Snapshot unit prices are carried as explicit prices so that later catalog
// changes do not silently reprice the quotation being edited.
func (s *Service) carrySnapshot(ctx context.Context, draft *Draft, q *repository.Quotation) error {
	lines, err := s.repo.GetLines(ctx, q.ID, q.OrganizationID)
	if err != nil {
		return s.persistErr("load quotation lines", err)
	}
	costs, err := s.repo.GetCosts(ctx, q.ID, q.OrganizationID)
	if err != nil {
		return s.persistErr("load quotation costs", err)
	}

	id := q.ID
	draft.QuotationID = &id
	draft.EventID = q.EventID
	if draft.Name == "" {
		draft.Name = q.Name
	}
	if draft.Description == nil {
		draft.Description = q.Description
	}
	if draft.CommercialConditionID == nil {
		draft.CommercialConditionID = q.CommercialConditionID
	}
	if draft.PaymentMethod == "" && q.PaymentMethod != nil {
		draft.PaymentMethod = *q.PaymentMethod
	}
	draft.VisibleToClient = draft.VisibleToClient || q.VisibleToClient

	draft.Lines = make([]transport.LineRequest, len(lines))
	for i, l := range lines {
		price := l.UnitPrice
		line := transport.LineRequest{
			CatalogServiceID: l.CatalogServiceID,
			UtilityType:      l.UtilityType,
			UnitPrice:        &price,
			Quantity:         l.Quantity,
		}
		if l.IsCustom || l.CatalogServiceID == nil {
			line.CatalogServiceID = nil
			line.Name = l.ItemName
			line.SectionName = l.SectionName
			line.CategoryName = l.CategoryName
		}
		draft.Lines[i] = line
	}

	draft.Costs = make([]transport.CostRequest, len(costs))
	for i, c := range costs {
		draft.Costs[i] = transport.CostRequest{Name: c.Name, Amount: c.Amount, Kind: c.Kind}
	}
	return nil
}

// GetDraft returns a draft with freshly priced lines.
func (s *Service) GetDraft(ctx context.Context, orgID, draftID uuid.UUID) (*transport.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, orgID, draftID)
	if err != nil {
		return nil, err
	}
	sel, err := s.price(ctx, orgID, draft.pricingInput())
	if err != nil {
		return nil, err
	}
	return toDraftResponse(draft, sel), nil
}

// UpdateDraftLines replaces the selection and feeds the new totals to the
// resolver. The returned analysis is set when a pinned edit total was checked
// against the guardrail.
func (s *Service) UpdateDraftLines(ctx context.Context, orgID, draftID uuid.UUID, req transport.UpdateDraftLinesRequest) (*transport.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, orgID, draftID)
	if err != nil {
		return nil, err
	}

	draft.Lines = req.Lines
	draft.Costs = req.Costs
	draft.CommercialConditionID = req.CommercialConditionID
	if req.PaymentMethod != nil {
		draft.PaymentMethod = *req.PaymentMethod
	}

	sel, err := s.price(ctx, orgID, draft.pricingInput())
	if err != nil {
		return nil, err
	}

	resolver := pricing.NewResolver(sel.Config.Guardrail)
	resolver.LinesChanged(&draft.Session, sel.Totals, sel.CostTotal)

	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return toDraftResponse(draft, sel), nil
}

// UpdateDraftDetails changes descriptive fields only; totals are untouched.
func (s *Service) UpdateDraftDetails(ctx context.Context, orgID, draftID uuid.UUID, req transport.UpdateDraftDetailsRequest) (*transport.DraftResponse, error) {
	return s.mutateDraft(ctx, orgID, draftID, func(_ *pricing.Resolver, d *Draft) error {
		if req.Name != nil {
			d.Name = sanitize.Text(*req.Name)
		}
		if req.Description != nil {
			d.Description = sanitize.TextPtr(req.Description)
		}
		if req.VisibleToClient != nil {
			d.VisibleToClient = *req.VisibleToClient
		}
		return nil
	})
}

// BeginTotalEdit marks the total field as being edited.
func (s *Service) BeginTotalEdit(ctx context.Context, orgID, draftID uuid.UUID) (*transport.DraftResponse, error) {
	return s.mutateDraft(ctx, orgID, draftID, func(r *pricing.Resolver, d *Draft) error {
		r.BeginTotalEdit(&d.Session)
		return nil
	})
}

// ProposeDraftTotal pins a manual total. When the guardrail rejects it, the
// proposal is kept pending on the draft and a guardrail error carrying the
// analysis is returned.
func (s *Service) ProposeDraftTotal(ctx context.Context, orgID, draftID uuid.UUID, total decimal.Decimal) (*transport.DraftResponse, error) {
	var rejection error
	resp, err := s.mutateDraft(ctx, orgID, draftID, func(r *pricing.Resolver, d *Draft) error {
		_, rejection = r.ProposeManualTotal(&d.Session, total)
		if rejection != nil && !apperr.Is(rejection, apperr.KindGuardrail) {
			return rejection
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return resp, rejection
	}
	return resp, nil
}

// ConfirmDraftTotal commits the pending risky total.
func (s *Service) ConfirmDraftTotal(ctx context.Context, orgID, draftID uuid.UUID) (*transport.DraftResponse, error) {
	return s.mutateDraft(ctx, orgID, draftID, func(r *pricing.Resolver, d *Draft) error {
		_, err := r.ConfirmPending(&d.Session)
		return err
	})
}

// DiscardDraftTotal drops the pending risky total.
func (s *Service) DiscardDraftTotal(ctx context.Context, orgID, draftID uuid.UUID) (*transport.DraftResponse, error) {
	return s.mutateDraft(ctx, orgID, draftID, func(r *pricing.Resolver, d *Draft) error {
		r.DiscardPending(&d.Session)
		return nil
	})
}

// RestoreAutomaticTotal releases any pin.
func (s *Service) RestoreAutomaticTotal(ctx context.Context, orgID, draftID uuid.UUID) (*transport.DraftResponse, error) {
	return s.mutateDraft(ctx, orgID, draftID, func(r *pricing.Resolver, d *Draft) error {
		r.RestoreAutomatic(&d.Session)
		return nil
	})
}

// DeleteDraft abandons a draft.
func (s *Service) DeleteDraft(ctx context.Context, orgID, draftID uuid.UUID) error {
	if _, err := s.loadDraft(ctx, orgID, draftID); err != nil {
		return err
	}
	if err := s.drafts.DeleteDraft(ctx, orgID, draftID); err != nil {
		return s.persistErr("delete draft", err)
	}
	return nil
}

// SubmitDraft persists the draft as a quotation snapshot. A draft whose
// manual total still awaits confirmation cannot be submitted.
func (s *Service) SubmitDraft(ctx context.Context, orgID, actorID, draftID uuid.UUID) (*transport.QuotationResponse, error) {
	draft, err := s.loadDraft(ctx, orgID, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Session.HasPending() {
		return nil, apperr.Guardrail("the proposed total needs confirmation before submitting", draft.Session.LastAnalysis)
	}
	if draft.Name == "" {
		return nil, apperr.Validation("quotation name is required").WithDetails(pricing.FieldErrors{"name": "required"})
	}
	if len(draft.Lines) == 0 {
		return nil, apperr.Validation("a quotation needs at least one line").WithDetails(pricing.FieldErrors{"lines": "at least one line is required"})
	}

	sel, err := s.price(ctx, orgID, draft.pricingInput())
	if err != nil {
		return nil, err
	}

	if !sameTotals(draft.Session.Totals, sel.Totals) {
		resolver := pricing.NewResolver(sel.Config.Guardrail)
		resolver.LinesChanged(&draft.Session, sel.Totals, sel.CostTotal)
	}

	header := quotationHeader{
		EventID:               draft.EventID,
		Name:                  draft.Name,
		Description:           draft.Description,
		CommercialConditionID: draft.CommercialConditionID,
		PaymentMethod:         draft.PaymentMethod,
		VisibleToClient:       draft.VisibleToClient,
	}

	var resp *transport.QuotationResponse
	if draft.QuotationID != nil {
		existing, err := s.loadEditable(ctx, *draft.QuotationID, orgID)
		if err != nil {
			return nil, err
		}
		header.EventID = existing.EventID
		resp, err = s.replaceQuotation(ctx, existing, header, sel, &draft.Session)
		if err != nil {
			return nil, err
		}
	} else {
		resp, err = s.createQuotation(ctx, orgID, actorID, header, sel, &draft.Session)
		if err != nil {
			return nil, err
		}
	}
	if draft.Session.LastAnalysis != nil {
		resp.Analysis = draft.Session.LastAnalysis
	}

	if err := s.drafts.DeleteDraft(ctx, orgID, draftID); err != nil {
		s.log.Warn("failed to delete submitted draft", "draftId", draftID, "error", err)
	}
	return resp, nil
}

func sameTotals(a, b pricing.Totals) bool {
	return a.SubtotalServices.Equal(b.SubtotalServices) && a.NetAdditionalCosts.Equal(b.NetAdditionalCosts)
}

func (s *Service) mutateDraft(ctx context.Context, orgID, draftID uuid.UUID, fn func(*pricing.Resolver, *Draft) error) (*transport.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, orgID, draftID)
	if err != nil {
		return nil, err
	}
	sel, err := s.price(ctx, orgID, draft.pricingInput())
	if err != nil {
		return nil, err
	}
	if err := fn(pricing.NewResolver(sel.Config.Guardrail), draft); err != nil {
		return nil, err
	}
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return toDraftResponse(draft, sel), nil
}

func (s *Service) loadDraft(ctx context.Context, orgID, draftID uuid.UUID) (*Draft, error) {
	payload, err := s.drafts.LoadDraft(ctx, orgID, draftID)
	if err != nil {
		return nil, s.persistErr("load draft", err)
	}
	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "corrupt draft", fmt.Errorf("decode draft %s: %w", draftID, err))
	}
	if draft.OrganizationID != orgID {
		return nil, apperr.NotFound("draft not found")
	}
	return &draft, nil
}

func (s *Service) saveDraft(ctx context.Context, draft *Draft) error {
	draft.UpdatedAt = time.Now()
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.drafts.SaveDraft(ctx, draft.OrganizationID, draft.ID, payload); err != nil {
		return s.persistErr("save draft", err)
	}
	return nil
}

func toDraftResponse(d *Draft, sel *pricedSelection) *transport.DraftResponse {
	resp := &transport.DraftResponse{
		ID:                    d.ID,
		Origin:                string(d.Session.Origin),
		QuotationID:           d.QuotationID,
		EventID:               d.EventID,
		Name:                  d.Name,
		Description:           d.Description,
		CommercialConditionID: d.CommercialConditionID,
		PaymentMethod:         d.PaymentMethod,
		VisibleToClient:       d.VisibleToClient,
		Mode:                  string(d.Session.Mode),
		Subtotal:              money(d.Session.Totals.SubtotalServices),
		NetCosts:              money(d.Session.Totals.NetAdditionalCosts),
		Total:                 money(d.Session.Total()),
		CostTotal:             money(d.Session.CostTotal),
		PinnedTotal:           moneyPtr(d.Session.PinnedTotal),
		ReferenceTotal:        moneyPtr(d.Session.ReferenceTotal),
		PendingTotal:          moneyPtr(d.Session.PendingTotal),
		TotalEditInProgress:   d.Session.TotalEditInProgress,
		Costs:                 toCostResponses(d.Costs),
		UpdatedAt:             d.UpdatedAt,
	}
	if d.Session.LastAnalysis != nil {
		resp.Analysis = d.Session.LastAnalysis
	}
	if sel != nil {
		resp.Lines = toPricedLineResponses(sel.Lines)
	}
	return resp
}
