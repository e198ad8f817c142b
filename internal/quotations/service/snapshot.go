package service

import (
	"context"
	"strings"
	"time"

	"eventquote_backend/internal/events"
	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// quotationHeader carries the descriptive fields of a submission.
type quotationHeader struct {
	EventID               uuid.UUID
	Name                  string
	Description           *string
	CommercialConditionID *uuid.UUID
	PaymentMethod         string
	VisibleToClient       bool
}

// Submit prices the lines and persists a new quotation with its snapshot in a
// single transaction.
func (s *Service) Submit(ctx context.Context, orgID uuid.UUID, actorID uuid.UUID, req transport.SubmitQuotationRequest) (*transport.QuotationResponse, error) {
	sel, err := s.price(ctx, orgID, pricingInput{
		CommercialConditionID: req.CommercialConditionID,
		PaymentMethod:         req.PaymentMethod,
		Lines:                 req.Lines,
		Costs:                 req.Costs,
	})
	if err != nil {
		return nil, err
	}

	resolver := pricing.NewResolver(sel.Config.Guardrail)
	session, err := resolver.NewSession(pricing.SessionSeed{
		Origin:    pricing.OriginNew,
		Totals:    sel.Totals,
		CostTotal: sel.CostTotal,
	})
	if err != nil {
		return nil, err
	}
	analysis, err := applyManualTotal(resolver, session, req.ManualTotal, req.ConfirmGuardrail)
	if err != nil {
		return nil, err
	}

	header := headerFromSubmit(req)
	resp, err := s.createQuotation(ctx, orgID, actorID, header, sel, session)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		resp.Analysis = analysis
	}
	return resp, nil
}

// Resubmit re-prices an existing quotation and replaces its whole snapshot.
// Only pending and authorized quotations can be changed.
func (s *Service) Resubmit(ctx context.Context, id uuid.UUID, orgID uuid.UUID, req transport.SubmitQuotationRequest) (*transport.QuotationResponse, error) {
	existing, err := s.loadEditable(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	sel, err := s.price(ctx, orgID, pricingInput{
		CommercialConditionID: req.CommercialConditionID,
		PaymentMethod:         req.PaymentMethod,
		Lines:                 req.Lines,
		Costs:                 req.Costs,
	})
	if err != nil {
		return nil, err
	}

	resolver := pricing.NewResolver(sel.Config.Guardrail)
	reference := existing.Total
	session, err := resolver.NewSession(pricing.SessionSeed{
		Origin:          pricing.OriginEdit,
		Totals:          sel.Totals,
		CostTotal:       sel.CostTotal,
		HistoricalTotal: &reference,
		Pinned:          existing.PriceMode == string(pricing.ModeManual),
	})
	if err != nil {
		return nil, err
	}

	var analysis *pricing.GuardrailAnalysis
	if req.ManualTotal == nil {
		// A pinned total survives new lines only while the automatic total
		// would fail the guardrail against it.
		stored := pricing.Totals{SubtotalServices: existing.Subtotal, NetAdditionalCosts: existing.NetCosts}
		if !sameTotals(stored, sel.Totals) {
			analysis = resolver.LinesChanged(session, sel.Totals, sel.CostTotal)
		}
	} else {
		analysis, err = applyManualTotal(resolver, session, req.ManualTotal, req.ConfirmGuardrail)
		if err != nil {
			return nil, err
		}
	}

	header := headerFromSubmit(req)
	header.EventID = existing.EventID
	resp, err := s.replaceQuotation(ctx, existing, header, sel, session)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		resp.Analysis = analysis
	}
	return resp, nil
}

// applyManualTotal proposes the requested manual total. A guardrail rejection
// is confirmed in place when the caller already acknowledged the risk.
func applyManualTotal(resolver *pricing.Resolver, session *pricing.EditingSession, manual *decimal.Decimal, confirm bool) (*pricing.GuardrailAnalysis, error) {
	if manual == nil {
		return nil, nil
	}
	analysis, err := resolver.ProposeManualTotal(session, *manual)
	if err != nil {
		if !confirm || !apperr.Is(err, apperr.KindGuardrail) {
			return &analysis, err
		}
		if _, err := resolver.ConfirmPending(session); err != nil {
			return &analysis, err
		}
	}
	return &analysis, nil
}

func (s *Service) loadEditable(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*repository.Quotation, error) {
	q, err := s.repo.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation", err)
	}
	if q.ArchivedAt != nil {
		return nil, apperr.Conflict("archived quotations cannot be changed")
	}
	switch lifecycle.Status(q.Status) {
	case lifecycle.StatusPending, lifecycle.StatusAuthorized:
		return q, nil
	default:
		return nil, apperr.Conflict("only pending or authorized quotations can be changed").
			WithDetails(map[string]string{"status": q.Status})
	}
}

func (s *Service) createQuotation(ctx context.Context, orgID, actorID uuid.UUID, header quotationHeader, sel *pricedSelection, session *pricing.EditingSession) (*transport.QuotationResponse, error) {
	now := time.Now()
	var createdBy *uuid.UUID
	if actorID != uuid.Nil {
		createdBy = &actorID
	}

	q := &repository.Quotation{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Status:          string(lifecycle.StatusPending),
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
		VisibleToClient: header.VisibleToClient,
	}
	applyHeader(q, header, sel, session)

	lines, costs := buildSnapshot(q, sel, now)
	if err := s.repo.CreateWithLines(ctx, q, lines, costs); err != nil {
		return nil, s.persistErr("save quotation", err)
	}

	s.log.Info("quotation submitted", "id", q.ID, "eventId", q.EventID, "total", q.Total.StringFixed(2), "mode", q.PriceMode)
	s.publish(ctx, events.QuotationSubmitted{
		BaseEvent:      events.NewBaseEvent(),
		QuotationID:    q.ID,
		EventID:        q.EventID,
		OrganizationID: orgID,
		Total:          money(q.Total),
		PriceMode:      q.PriceMode,
	})

	return toQuotationResponse(q, lines, costs), nil
}

func (s *Service) replaceQuotation(ctx context.Context, q *repository.Quotation, header quotationHeader, sel *pricedSelection, session *pricing.EditingSession) (*transport.QuotationResponse, error) {
	now := time.Now()
	q.UpdatedAt = now
	q.VisibleToClient = header.VisibleToClient
	applyHeader(q, header, sel, session)

	lines, costs := buildSnapshot(q, sel, now)
	if err := s.repo.ReplaceWithLines(ctx, q, lines, costs); err != nil {
		return nil, s.persistErr("save quotation", err)
	}

	s.log.Info("quotation resubmitted", "id", q.ID, "total", q.Total.StringFixed(2), "mode", q.PriceMode)
	s.publish(ctx, events.QuotationSubmitted{
		BaseEvent:      events.NewBaseEvent(),
		QuotationID:    q.ID,
		EventID:        q.EventID,
		OrganizationID: q.OrganizationID,
		Total:          money(q.Total),
		PriceMode:      q.PriceMode,
		Resubmitted:    true,
	})

	return toQuotationResponse(q, lines, costs), nil
}

func applyHeader(q *repository.Quotation, header quotationHeader, sel *pricedSelection, session *pricing.EditingSession) {
	q.EventID = header.EventID
	q.Name = sanitize.Text(header.Name)
	q.Description = sanitize.TextPtr(header.Description)
	q.CommercialConditionID = header.CommercialConditionID
	q.PaymentMethod = nilIfEmpty(strings.TrimSpace(header.PaymentMethod))
	q.Subtotal = sel.Totals.SubtotalServices
	q.NetCosts = sel.Totals.NetAdditionalCosts
	q.Total = pricing.Round(session.Total())
	q.PriceMode = string(session.Mode)
}

func headerFromSubmit(req transport.SubmitQuotationRequest) quotationHeader {
	return quotationHeader{
		EventID:               req.EventID,
		Name:                  req.Name,
		Description:           req.Description,
		CommercialConditionID: req.CommercialConditionID,
		PaymentMethod:         req.PaymentMethod,
		VisibleToClient:       req.VisibleToClient,
	}
}
