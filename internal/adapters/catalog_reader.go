package adapters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	catrepo "eventquote_backend/internal/catalog/repository"
	catsvc "eventquote_backend/internal/catalog/service"
	"eventquote_backend/internal/quotations/pricing"
	quotesvc "eventquote_backend/internal/quotations/service"
)

// CatalogReader adapts the catalog service for the quotations domain.
type CatalogReader struct {
	svc *catsvc.Service
}

// NewCatalogReader creates a new catalog reader adapter.
func NewCatalogReader(svc *catsvc.Service) *CatalogReader {
	return &CatalogReader{svc: svc}
}

// FetchCatalog returns the active catalog, optionally narrowed to an event type.
func (a *CatalogReader) FetchCatalog(ctx context.Context, orgID uuid.UUID, eventTypeID *uuid.UUID) ([]quotesvc.CatalogService, error) {
	items, err := a.svc.ListServices(ctx, orgID, eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: list services: %w", err)
	}
	return toCatalogServices(items), nil
}

// GetServicesByIDs returns the requested entries. Unknown IDs are omitted.
func (a *CatalogReader) GetServicesByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]quotesvc.CatalogService, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := a.svc.GetServicesByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: get services: %w", err)
	}
	return toCatalogServices(items), nil
}

func toCatalogServices(items []catrepo.Service) []quotesvc.CatalogService {
	result := make([]quotesvc.CatalogService, 0, len(items))
	for _, s := range items {
		entry := quotesvc.CatalogService{
			ID:           s.ID,
			Name:         s.Name,
			SectionName:  s.SectionName,
			CategoryName: s.CategoryName,
			UnitCost:     s.UnitCost,
			UnitOverhead: s.UnitOverhead,
			UtilityType:  pricing.UtilityType(s.UtilityType),
			EventTypeID:  s.EventTypeID,
		}
		if s.PublishedPrice.Valid {
			price := s.PublishedPrice.Decimal
			entry.PublishedPrice = &price
		}
		result = append(result, entry)
	}
	return result
}

// Compile-time check that CatalogReader implements quotesvc.CatalogReader.
var _ quotesvc.CatalogReader = (*CatalogReader)(nil)
