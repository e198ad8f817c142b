package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusReserved = "reserved"
	StatusRemoved  = "removed"
)

// Booking represents a calendar reservation for an event
type Booking struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	EventID        uuid.UUID  `db:"event_id"`
	QuotationID    *uuid.UUID `db:"quotation_id"`
	Title          string     `db:"title"`
	StartsAt       *time.Time `db:"starts_at"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	RemovedAt      *time.Time `db:"removed_at"`
}

// Repository provides database operations for bookings
type Repository struct {
	pool *pgxpool.Pool
}

const eventNotFoundMsg = "event not found"

// New creates a new bookings repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `id, organization_id, event_id, quotation_id, title, starts_at, status, created_at, removed_at`

// Reserve creates the booking of a quotation from its event's name and date.
// A quotation holds at most one reserved booking; reserving again returns the
// existing one and created=false.
func (r *Repository) Reserve(ctx context.Context, orgID, eventID, quotationID uuid.UUID) (*Booking, bool, error) {
	var title string
	var eventDate *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT name, event_date FROM events WHERE id = $1 AND organization_id = $2`,
		eventID, orgID,
	).Scan(&title, &eventDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, apperr.NotFound(eventNotFoundMsg)
		}
		return nil, false, fmt.Errorf("failed to load event for booking: %w", err)
	}

	query := `
		INSERT INTO bookings (id, organization_id, event_id, quotation_id, title, starts_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'reserved')
		ON CONFLICT (quotation_id) WHERE status = 'reserved' DO NOTHING
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.pool.QueryRow(ctx, query, uuid.New(), orgID, eventID, quotationID, title, eventDate))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to reserve booking: %w", err)
	}

	existing, err := scanBooking(r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE organization_id = $1 AND quotation_id = $2 AND status = 'reserved'`,
		orgID, quotationID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load reserved booking: %w", err)
	}
	return existing, false, nil
}

// RemoveByQuotation marks every reserved booking of the quotation as removed
// and returns how many rows changed.
func (r *Repository) RemoveByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'removed', removed_at = now()
		WHERE organization_id = $1 AND quotation_id = $2 AND status = 'reserved'`,
		orgID, quotationID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to remove bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByQuotation returns the bookings of a quotation, oldest first.
func (r *Repository) ListByQuotation(ctx context.Context, orgID, quotationID uuid.UUID) ([]Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE organization_id = $1 AND quotation_id = $2 ORDER BY created_at`,
		orgID, quotationID,
	)
}

// ListByEvent returns the bookings of an event, oldest first.
func (r *Repository) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE organization_id = $1 AND event_id = $2 ORDER BY created_at`,
		orgID, eventID,
	)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var items []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return items, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.OrganizationID, &b.EventID, &b.QuotationID, &b.Title,
		&b.StartsAt, &b.Status, &b.CreatedAt, &b.RemovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
