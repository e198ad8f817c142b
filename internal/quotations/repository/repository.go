package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Quotation is the database model for a quotation header
type Quotation struct {
	ID                    uuid.UUID       `db:"id"`
	OrganizationID        uuid.UUID       `db:"organization_id"`
	EventID               uuid.UUID       `db:"event_id"`
	Name                  string          `db:"name"`
	Description           *string         `db:"description"`
	CommercialConditionID *uuid.UUID      `db:"commercial_condition_id"`
	PaymentMethod         *string         `db:"payment_method"`
	Subtotal              decimal.Decimal `db:"subtotal"`
	NetCosts              decimal.Decimal `db:"net_costs"`
	Total                 decimal.Decimal `db:"total"`
	PriceMode             string          `db:"price_mode"`
	Status                string          `db:"status"`
	VisibleToClient       bool            `db:"visible_to_client"`
	CreatedBy             *uuid.UUID      `db:"created_by"`
	ArchivedAt            *time.Time      `db:"archived_at"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
}

// QuotationLine is the immutable snapshot of one priced line
type QuotationLine struct {
	ID               uuid.UUID           `db:"id"`
	QuotationID      uuid.UUID           `db:"quotation_id"`
	OrganizationID   uuid.UUID           `db:"organization_id"`
	CatalogServiceID *uuid.UUID          `db:"catalog_service_id"`
	SectionName      string              `db:"section_name"`
	CategoryName     string              `db:"category_name"`
	ItemName         string              `db:"item_name"`
	UnitPrice        decimal.Decimal     `db:"unit_price"`
	UnitCost         decimal.Decimal     `db:"unit_cost"`
	UnitOverhead     decimal.Decimal     `db:"unit_overhead"`
	UnitUtility      decimal.Decimal     `db:"unit_utility"`
	PublishedPrice   decimal.NullDecimal `db:"published_price"`
	UtilityType      string              `db:"utility_type"`
	IsCustom         bool                `db:"is_custom"`
	Quantity         int                 `db:"quantity"`
	Position         int                 `db:"position"`
	CreatedAt        time.Time           `db:"created_at"`
}

// QuotationCost is an additional cost attached to a quotation
type QuotationCost struct {
	ID             uuid.UUID       `db:"id"`
	QuotationID    uuid.UUID       `db:"quotation_id"`
	OrganizationID uuid.UUID       `db:"organization_id"`
	Name           string          `db:"name"`
	Amount         decimal.Decimal `db:"amount"`
	Kind           string          `db:"kind"`
	Position       int             `db:"position"`
}

// ListParams contains parameters for listing quotations
type ListParams struct {
	OrganizationID  uuid.UUID
	EventID         *uuid.UUID
	Status          *string
	IncludeArchived bool
	Search          string
	SortBy          string
	SortOrder       string
	Page            int
	PageSize        int
}

// ListResult contains the paginated result of listing quotations
type ListResult struct {
	Items      []Quotation
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ── Repository ────────────────────────────────────────────────────────────────

const (
	quotationNotFoundMsg = "quotation not found"
	activeConflictMsg    = "another quotation for this event is already authorized or approved"

	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	activePerEventIndex    = "uq_quotations_active_per_event"
	quotationSelectColumns = `id, organization_id, event_id, name, description, commercial_condition_id,
			payment_method, subtotal, net_costs, total, price_mode, status, visible_to_client,
			created_by, archived_at, created_at, updated_at`
)

// Repository provides database operations for quotations
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotations repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithLines inserts a quotation, its line snapshot and its costs in a single transaction
func (r *Repository) CreateWithLines(ctx context.Context, q *Quotation, lines []QuotationLine, costs []QuotationCost) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO quotations (
			id, organization_id, event_id, name, description, commercial_condition_id,
			payment_method, subtotal, net_costs, total, price_mode, status, visible_to_client,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	if _, err := tx.Exec(ctx, query,
		q.ID, q.OrganizationID, q.EventID, q.Name, q.Description, q.CommercialConditionID,
		q.PaymentMethod, q.Subtotal, q.NetCosts, q.Total, q.PriceMode, q.Status, q.VisibleToClient,
		q.CreatedBy, q.CreatedAt, q.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperr.NotFound("event not found")
		}
		return fmt.Errorf("failed to insert quotation: %w", err)
	}

	if err := insertLines(ctx, tx, lines); err != nil {
		return err
	}
	if err := insertCosts(ctx, tx, costs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ReplaceWithLines updates the quotation header and replaces its whole line
// snapshot and costs in a single transaction
func (r *Repository) ReplaceWithLines(ctx context.Context, q *Quotation, lines []QuotationLine, costs []QuotationCost) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE quotations SET
			name = $3, description = $4, commercial_condition_id = $5, payment_method = $6,
			subtotal = $7, net_costs = $8, total = $9, price_mode = $10,
			visible_to_client = $11, updated_at = $12
		WHERE id = $1 AND organization_id = $2 AND archived_at IS NULL`

	result, err := tx.Exec(ctx, query,
		q.ID, q.OrganizationID, q.Name, q.Description, q.CommercialConditionID, q.PaymentMethod,
		q.Subtotal, q.NetCosts, q.Total, q.PriceMode, q.VisibleToClient, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1 AND organization_id = $2`, q.ID, q.OrganizationID); err != nil {
		return fmt.Errorf("failed to delete old quotation lines: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM quotation_costs WHERE quotation_id = $1 AND organization_id = $2`, q.ID, q.OrganizationID); err != nil {
		return fmt.Errorf("failed to delete old quotation costs: %w", err)
	}
	if err := insertLines(ctx, tx, lines); err != nil {
		return err
	}
	if err := insertCosts(ctx, tx, costs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertLines(ctx context.Context, tx pgx.Tx, lines []QuotationLine) error {
	query := `
		INSERT INTO quotation_lines (
			id, quotation_id, organization_id, catalog_service_id, section_name, category_name,
			item_name, unit_price, unit_cost, unit_overhead, unit_utility, published_price,
			utility_type, is_custom, quantity, position, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	for _, l := range lines {
		if _, err := tx.Exec(ctx, query,
			l.ID, l.QuotationID, l.OrganizationID, l.CatalogServiceID, l.SectionName, l.CategoryName,
			l.ItemName, l.UnitPrice, l.UnitCost, l.UnitOverhead, l.UnitUtility, l.PublishedPrice,
			l.UtilityType, l.IsCustom, l.Quantity, l.Position, l.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert quotation line: %w", err)
		}
	}
	return nil
}

func insertCosts(ctx context.Context, tx pgx.Tx, costs []QuotationCost) error {
	query := `
		INSERT INTO quotation_costs (id, quotation_id, organization_id, name, amount, kind, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, c := range costs {
		if _, err := tx.Exec(ctx, query, c.ID, c.QuotationID, c.OrganizationID, c.Name, c.Amount, c.Kind, c.Position); err != nil {
			return fmt.Errorf("failed to insert quotation cost: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a quotation by its ID scoped to organization
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*Quotation, error) {
	query := `SELECT ` + quotationSelectColumns + ` FROM quotations WHERE id = $1 AND organization_id = $2`

	q, err := scanQuotation(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quotationNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return q, nil
}

// GetLines retrieves the line snapshot of a quotation in position order
func (r *Repository) GetLines(ctx context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]QuotationLine, error) {
	query := `
		SELECT id, quotation_id, organization_id, catalog_service_id, section_name, category_name,
			item_name, unit_price, unit_cost, unit_overhead, unit_utility, published_price,
			utility_type, is_custom, quantity, position, created_at
		FROM quotation_lines WHERE quotation_id = $1 AND organization_id = $2
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, quotationID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotation lines: %w", err)
	}
	defer rows.Close()

	var lines []QuotationLine
	for rows.Next() {
		var l QuotationLine
		if err := rows.Scan(
			&l.ID, &l.QuotationID, &l.OrganizationID, &l.CatalogServiceID, &l.SectionName, &l.CategoryName,
			&l.ItemName, &l.UnitPrice, &l.UnitCost, &l.UnitOverhead, &l.UnitUtility, &l.PublishedPrice,
			&l.UtilityType, &l.IsCustom, &l.Quantity, &l.Position, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quotation line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotation lines: %w", err)
	}
	return lines, nil
}

// GetCosts retrieves the additional costs of a quotation in position order
func (r *Repository) GetCosts(ctx context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]QuotationCost, error) {
	query := `
		SELECT id, quotation_id, organization_id, name, amount, kind, position
		FROM quotation_costs WHERE quotation_id = $1 AND organization_id = $2
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, quotationID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotation costs: %w", err)
	}
	defer rows.Close()

	var costs []QuotationCost
	for rows.Next() {
		var c QuotationCost
		if err := rows.Scan(&c.ID, &c.QuotationID, &c.OrganizationID, &c.Name, &c.Amount, &c.Kind, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan quotation cost: %w", err)
		}
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotation costs: %w", err)
	}
	return costs, nil
}

// UpdateStatus moves a quotation from one status to another. It fails with a
// conflict when the quotation is no longer in the expected status or when the
// event already has another active quotation.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, from, to string) error {
	query := `
		UPDATE quotations SET status = $4, updated_at = $5
		WHERE id = $1 AND organization_id = $2 AND status = $3 AND archived_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, orgID, from, to, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activePerEventIndex {
			return apperr.Conflict(activeConflictMsg)
		}
		return fmt.Errorf("failed to update quotation status: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id, orgID); err != nil {
			return err
		}
		return apperr.Conflict("quotation status changed concurrently")
	}
	return nil
}

// FindActiveForEvent returns the authorized or approved quotation of an event
// other than excludeID, if any.
func (r *Repository) FindActiveForEvent(ctx context.Context, orgID, eventID, excludeID uuid.UUID) (*Quotation, error) {
	query := `SELECT ` + quotationSelectColumns + ` FROM quotations
		WHERE organization_id = $1 AND event_id = $2 AND id <> $3
			AND status IN ('authorized', 'approved') AND archived_at IS NULL
		LIMIT 1`

	q, err := scanQuotation(r.pool.QueryRow(ctx, query, orgID, eventID, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active quotation: %w", err)
	}
	return q, nil
}

// Delete removes a quotation together with its lines and costs. Payments and
// bookings keep their rows; their quotation reference is left dangling on purpose
// for record keeping.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM quotations WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete quotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}
	return nil
}

// Archive marks a quotation as archived. Archived quotations leave the
// active-per-event constraint.
func (r *Repository) Archive(ctx context.Context, id uuid.UUID, orgID uuid.UUID, at time.Time) error {
	query := `UPDATE quotations SET archived_at = $3, updated_at = $3 WHERE id = $1 AND organization_id = $2 AND archived_at IS NULL`
	result, err := r.pool.Exec(ctx, query, id, orgID, at)
	if err != nil {
		return fmt.Errorf("failed to archive quotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}
	return nil
}

// List retrieves quotations with filtering and pagination
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}

	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}

	var eventParam interface{}
	if params.EventID != nil {
		eventParam = *params.EventID
	}

	baseQuery := `
		FROM quotations
		WHERE organization_id = $1
			AND ($2::uuid IS NULL OR event_id = $2)
			AND ($3::text IS NULL OR status = $3)
			AND ($4::text IS NULL OR name ILIKE $4 OR description ILIKE $4)
			AND ($5::bool OR archived_at IS NULL)
	`
	args := []interface{}{params.OrganizationID, eventParam, statusParam, searchParam, params.IncludeArchived}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotations: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `SELECT ` + quotationSelectColumns + baseQuery + `
		ORDER BY
			CASE WHEN $6 = 'name' AND $7 = 'asc' THEN name END ASC,
			CASE WHEN $6 = 'name' AND $7 = 'desc' THEN name END DESC,
			CASE WHEN $6 = 'status' AND $7 = 'asc' THEN status END ASC,
			CASE WHEN $6 = 'status' AND $7 = 'desc' THEN status END DESC,
			CASE WHEN $6 = 'total' AND $7 = 'asc' THEN total END ASC,
			CASE WHEN $6 = 'total' AND $7 = 'desc' THEN total END DESC,
			CASE WHEN $6 = 'createdAt' AND $7 = 'asc' THEN created_at END ASC,
			CASE WHEN $6 = 'createdAt' AND $7 = 'desc' THEN created_at END DESC,
			CASE WHEN $6 = 'updatedAt' AND $7 = 'asc' THEN updated_at END ASC,
			CASE WHEN $6 = 'updatedAt' AND $7 = 'desc' THEN updated_at END DESC,
			created_at DESC
		LIMIT $8 OFFSET $9`

	args = append(args, sortBy, sortOrder, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	defer rows.Close()

	var items []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotations: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	if err := row.Scan(
		&q.ID, &q.OrganizationID, &q.EventID, &q.Name, &q.Description, &q.CommercialConditionID,
		&q.PaymentMethod, &q.Subtotal, &q.NetCosts, &q.Total, &q.PriceMode, &q.Status, &q.VisibleToClient,
		&q.CreatedBy, &q.ArchivedAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &q, nil
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "name", "status", "total", "createdAt", "updatedAt":
		return sortBy, nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "desc", nil
	}
	switch sortOrder {
	case "asc", "desc":
		return sortOrder, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}
