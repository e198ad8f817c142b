package service

import (
	"context"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// GetByID retrieves a quotation with its line snapshot and costs
func (s *Service) GetByID(ctx context.Context, orgID, quotationID uuid.UUID) (*transport.QuotationResponse, error) {
	return s.loadFull(ctx, quotationID, orgID)
}

func (s *Service) loadFull(ctx context.Context, id, orgID uuid.UUID) (*transport.QuotationResponse, error) {
	q, err := s.repo.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation", err)
	}
	lines, err := s.repo.GetLines(ctx, id, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation lines", err)
	}
	costs, err := s.repo.GetCosts(ctx, id, orgID)
	if err != nil {
		return nil, s.persistErr("load quotation costs", err)
	}
	return toQuotationResponse(q, lines, costs), nil
}

// List retrieves quotations with filtering and pagination
func (s *Service) List(ctx context.Context, orgID uuid.UUID, req transport.ListQuotationsRequest) (*transport.QuotationListResponse, error) {
	params := repository.ListParams{
		OrganizationID:  orgID,
		IncludeArchived: req.IncludeArchived,
		Search:          req.Search,
		SortBy:          req.SortBy,
		SortOrder:       req.SortOrder,
		Page:            req.Page,
		PageSize:        req.PageSize,
	}
	if params.Page < 1 {
		params.Page = defaultPage
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if req.EventID != "" {
		eventID, err := uuid.Parse(req.EventID)
		if err != nil {
			return nil, apperr.Validation("invalid eventId").WithDetails(pricing.FieldErrors{"eventId": "must be a UUID"})
		}
		params.EventID = &eventID
	}
	if req.Status != "" {
		status := req.Status
		params.Status = &status
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, s.persistErr("list quotations", err)
	}

	items := make([]transport.QuotationSummaryResponse, len(result.Items))
	for i, q := range result.Items {
		items[i] = toSummaryResponse(q)
	}
	return &transport.QuotationListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}
