package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventquote_backend/internal/catalog/repository"
	"eventquote_backend/internal/catalog/transport"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/sanitize"
)

// Service provides business logic for the service catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListServices returns the active services available for an event type.
func (s *Service) ListServices(ctx context.Context, tenantID uuid.UUID, eventTypeID *uuid.UUID) ([]repository.Service, error) {
	return s.repo.ListServices(ctx, tenantID, eventTypeID)
}

// GetServicesByIDs returns the services with the given IDs.
func (s *Service) GetServicesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]repository.Service, error) {
	return s.repo.GetServicesByIDs(ctx, tenantID, ids)
}

// GetCatalog returns the active catalog grouped by section and category.
func (s *Service) GetCatalog(ctx context.Context, tenantID uuid.UUID, eventTypeID *uuid.UUID) (transport.CatalogResponse, error) {
	items, err := s.repo.ListServices(ctx, tenantID, eventTypeID)
	if err != nil {
		return transport.CatalogResponse{}, err
	}
	return toCatalogResponse(items), nil
}

// GetService retrieves a single catalog service.
func (s *Service) GetService(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.repo.GetServiceByID(ctx, tenantID, id)
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toServiceResponse(svc), nil
}

// CreateService adds a service to a category.
func (s *Service) CreateService(ctx context.Context, tenantID uuid.UUID, req transport.CreateServiceRequest) (transport.ServiceResponse, error) {
	svc, err := s.repo.CreateService(ctx, repository.CreateServiceParams{
		OrganizationID: tenantID,
		CategoryID:     req.CategoryID,
		EventTypeID:    req.EventTypeID,
		Name:           sanitize.Text(req.Name),
		UnitCost:       req.UnitCost,
		UnitOverhead:   req.UnitOverhead,
		UtilityType:    req.UtilityType,
		PublishedPrice: req.PublishedPrice,
	})
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	s.log.Info("catalog service created", "id", svc.ID, "name", svc.Name)
	return toServiceResponse(svc), nil
}

// UpdateService changes cost, overhead or published price of a service.
func (s *Service) UpdateService(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, req transport.UpdateServiceRequest) (transport.ServiceResponse, error) {
	var name *string
	if req.Name != nil {
		trimmed := sanitize.Text(*req.Name)
		name = &trimmed
	}

	svc, err := s.repo.UpdateService(ctx, repository.UpdateServiceParams{
		ID:             id,
		OrganizationID: tenantID,
		Name:           name,
		UnitCost:       req.UnitCost,
		UnitOverhead:   req.UnitOverhead,
		UtilityType:    req.UtilityType,
		PublishedPrice: req.PublishedPrice,
		IsActive:       req.IsActive,
	})
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	s.log.Info("catalog service updated", "id", svc.ID)
	return toServiceResponse(svc), nil
}

func toCatalogResponse(items []repository.Service) transport.CatalogResponse {
	resp := transport.CatalogResponse{Sections: []transport.SectionResponse{}, Total: len(items)}

	// Rows arrive ordered by section then category, so grouping only has to
	// look at the last bucket.
	for _, item := range items {
		if n := len(resp.Sections); n == 0 || resp.Sections[n-1].Name != item.SectionName {
			resp.Sections = append(resp.Sections, transport.SectionResponse{
				Name:       item.SectionName,
				Categories: []transport.CategoryResponse{},
			})
		}
		section := &resp.Sections[len(resp.Sections)-1]

		if n := len(section.Categories); n == 0 || section.Categories[n-1].Name != item.CategoryName {
			section.Categories = append(section.Categories, transport.CategoryResponse{
				Name:     item.CategoryName,
				Services: []transport.ServiceResponse{},
			})
		}
		category := &section.Categories[len(section.Categories)-1]
		category.Services = append(category.Services, toServiceResponse(item))
	}

	return resp
}

func toServiceResponse(svc repository.Service) transport.ServiceResponse {
	resp := transport.ServiceResponse{
		ID:           svc.ID,
		CategoryID:   svc.CategoryID,
		EventTypeID:  svc.EventTypeID,
		Name:         svc.Name,
		UnitCost:     svc.UnitCost.StringFixed(2),
		UnitOverhead: svc.UnitOverhead.StringFixed(2),
		UtilityType:  svc.UtilityType,
		IsActive:     svc.IsActive,
		UpdatedAt:    svc.UpdatedAt,
	}
	if svc.PublishedPrice.Valid {
		resp.PublishedPrice = fixed(svc.PublishedPrice.Decimal)
	}
	return resp
}

func fixed(d decimal.Decimal) *string {
	s := d.StringFixed(2)
	return &s
}
