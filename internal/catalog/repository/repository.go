package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"eventquote_backend/platform/apperr"
)

const (
	serviceNotFoundMessage  = "catalog service not found"
	categoryNotFoundMessage = "catalog category not found"
)

// Service is a priced catalog entry with its section and category names.
type Service struct {
	ID             uuid.UUID           `db:"id"`
	OrganizationID uuid.UUID           `db:"organization_id"`
	CategoryID     uuid.UUID           `db:"category_id"`
	EventTypeID    *uuid.UUID          `db:"event_type_id"`
	SectionName    string              `db:"section_name"`
	CategoryName   string              `db:"category_name"`
	Name           string              `db:"name"`
	UnitCost       decimal.Decimal     `db:"unit_cost"`
	UnitOverhead   decimal.Decimal     `db:"unit_overhead"`
	UtilityType    string              `db:"utility_type"`
	PublishedPrice decimal.NullDecimal `db:"published_price"`
	IsActive       bool                `db:"is_active"`
	UpdatedAt      time.Time           `db:"updated_at"`
}

// CreateServiceParams contains data for creating a catalog service.
type CreateServiceParams struct {
	OrganizationID uuid.UUID
	CategoryID     uuid.UUID
	EventTypeID    *uuid.UUID
	Name           string
	UnitCost       decimal.Decimal
	UnitOverhead   decimal.Decimal
	UtilityType    string
	PublishedPrice *decimal.Decimal
}

// UpdateServiceParams contains data for updating a catalog service.
type UpdateServiceParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           *string
	UnitCost       *decimal.Decimal
	UnitOverhead   *decimal.Decimal
	UtilityType    *string
	PublishedPrice *decimal.Decimal
	IsActive       *bool
}

// Repository defines catalog storage operations.
type Repository interface {
	ListServices(ctx context.Context, organizationID uuid.UUID, eventTypeID *uuid.UUID) ([]Service, error)
	GetServicesByIDs(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]Service, error)
	GetServiceByID(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) (Service, error)
	CreateService(ctx context.Context, params CreateServiceParams) (Service, error)
	UpdateService(ctx context.Context, params UpdateServiceParams) (Service, error)
}

// Repo implements catalog storage on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const serviceColumns = `
	s.id, s.organization_id, s.category_id, s.event_type_id, sec.name, cat.name, s.name,
	s.unit_cost, s.unit_overhead, s.utility_type, s.published_price, s.is_active, s.updated_at`

const serviceJoins = `
	FROM catalog_services s
	JOIN catalog_categories cat ON cat.id = s.category_id
	JOIN catalog_sections sec ON sec.id = cat.section_id`

// ListServices returns the active services of an organization in display order.
// When eventTypeID is set, services bound to another event type are skipped.
func (r *Repo) ListServices(ctx context.Context, organizationID uuid.UUID, eventTypeID *uuid.UUID) ([]Service, error) {
	query := `SELECT ` + serviceColumns + serviceJoins + `
		WHERE s.organization_id = $1
		  AND s.is_active
		  AND ($2::uuid IS NULL OR s.event_type_id IS NULL OR s.event_type_id = $2)
		ORDER BY sec.position, sec.name, cat.position, cat.name, s.position, s.name`

	rows, err := r.pool.Query(ctx, query, organizationID, eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("list catalog services: %w", err)
	}
	defer rows.Close()

	return collectServices(rows)
}

// GetServicesByIDs returns the services matching the IDs, active or not.
// Missing IDs are simply absent from the result.
func (r *Repo) GetServicesByIDs(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]Service, error) {
	if len(ids) == 0 {
		return []Service{}, nil
	}

	query := `SELECT ` + serviceColumns + serviceJoins + `
		WHERE s.organization_id = $1 AND s.id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, organizationID, ids)
	if err != nil {
		return nil, fmt.Errorf("get catalog services by ids: %w", err)
	}
	defer rows.Close()

	return collectServices(rows)
}

// GetServiceByID retrieves a single catalog service.
func (r *Repo) GetServiceByID(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) (Service, error) {
	query := `SELECT ` + serviceColumns + serviceJoins + `
		WHERE s.organization_id = $1 AND s.id = $2`

	svc, err := scanService(r.pool.QueryRow(ctx, query, organizationID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("get catalog service by id: %w", err)
	}
	return svc, nil
}

// CreateService inserts a catalog service.
func (r *Repo) CreateService(ctx context.Context, params CreateServiceParams) (Service, error) {
	query := `
		INSERT INTO catalog_services (
			id, organization_id, category_id, event_type_id, name,
			unit_cost, unit_overhead, utility_type, published_price
		)
		SELECT $1, $2, cat.id, $4, $5, $6, $7, $8, $9
		FROM catalog_categories cat
		WHERE cat.id = $3 AND cat.organization_id = $2`

	id := uuid.New()
	tag, err := r.pool.Exec(ctx, query,
		id, params.OrganizationID, params.CategoryID, params.EventTypeID, params.Name,
		params.UnitCost, params.UnitOverhead, params.UtilityType, params.PublishedPrice,
	)
	if err != nil {
		return Service{}, fmt.Errorf("create catalog service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Service{}, apperr.NotFound(categoryNotFoundMessage)
	}

	return r.GetServiceByID(ctx, params.OrganizationID, id)
}

// UpdateService updates a catalog service. Quotations already submitted keep
// their own snapshot and are not affected.
func (r *Repo) UpdateService(ctx context.Context, params UpdateServiceParams) (Service, error) {
	query := `
		UPDATE catalog_services
		SET name = COALESCE($3, name),
			unit_cost = COALESCE($4, unit_cost),
			unit_overhead = COALESCE($5, unit_overhead),
			utility_type = COALESCE($6, utility_type),
			published_price = COALESCE($7, published_price),
			is_active = COALESCE($8, is_active),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2`

	tag, err := r.pool.Exec(ctx, query,
		params.ID, params.OrganizationID, params.Name, params.UnitCost, params.UnitOverhead,
		params.UtilityType, params.PublishedPrice, params.IsActive,
	)
	if err != nil {
		return Service{}, fmt.Errorf("update catalog service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Service{}, apperr.NotFound(serviceNotFoundMessage)
	}

	return r.GetServiceByID(ctx, params.OrganizationID, params.ID)
}

func collectServices(rows pgx.Rows) ([]Service, error) {
	items := make([]Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog service: %w", err)
		}
		items = append(items, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog services: %w", err)
	}
	return items, nil
}

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(
		&s.ID, &s.OrganizationID, &s.CategoryID, &s.EventTypeID, &s.SectionName, &s.CategoryName, &s.Name,
		&s.UnitCost, &s.UnitOverhead, &s.UtilityType, &s.PublishedPrice, &s.IsActive, &s.UpdatedAt,
	)
	return s, err
}
