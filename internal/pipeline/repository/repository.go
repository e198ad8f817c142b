// Package repository stores events and their pipeline stage history.
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

const eventNotFoundMessage = "event not found"

// Event is a client event that quotations are priced for.
type Event struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	EventTypeID    *uuid.UUID `db:"event_type_id"`
	Name           string     `db:"name"`
	EventDate      *time.Time `db:"event_date"`
	PipelineStage  string     `db:"pipeline_stage"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// StageChange is one row of the stage history.
type StageChange struct {
	ID          uuid.UUID  `db:"id"`
	EventID     uuid.UUID  `db:"event_id"`
	OldStage    string     `db:"old_stage"`
	NewStage    string     `db:"new_stage"`
	QuotationID *uuid.UUID `db:"quotation_id"`
	ActorID     *uuid.UUID `db:"actor_id"`
	Reason      string     `db:"reason"`
	CreatedAt   time.Time  `db:"created_at"`
}

// SetStageParams describes a stage move.
type SetStageParams struct {
	OrganizationID uuid.UUID
	EventID        uuid.UUID
	Stage          string
	QuotationID    *uuid.UUID
	ActorID        *uuid.UUID
	Reason         string
}

// Repository provides event storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pipeline repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateEvent inserts an event in the initial stage.
func (r *Repository) CreateEvent(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, organization_id, event_type_id, name, event_date, pipeline_stage)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		e.ID, e.OrganizationID, e.EventTypeID, e.Name, e.EventDate, e.PipelineStage,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (r *Repository) GetEvent(ctx context.Context, id, orgID uuid.UUID) (*Event, error) {
	var e Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, event_type_id, name, event_date, pipeline_stage, created_at, updated_at
		FROM events
		WHERE id = $1 AND organization_id = $2`, id, orgID,
	).Scan(&e.ID, &e.OrganizationID, &e.EventTypeID, &e.Name, &e.EventDate, &e.PipelineStage, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(eventNotFoundMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// SetStage moves an event to params.Stage and records the change. Moving to
// the current stage is a no-op and reports changed=false.
func (r *Repository) SetStage(ctx context.Context, params SetStageParams) (oldStage string, changed bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin stage tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		SELECT pipeline_stage FROM events
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE`, params.EventID, params.OrganizationID,
	).Scan(&oldStage)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, apperr.NotFound(eventNotFoundMessage)
	}
	if err != nil {
		return "", false, fmt.Errorf("lock event: %w", err)
	}

	if oldStage == params.Stage {
		return oldStage, false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE events SET pipeline_stage = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2`,
		params.EventID, params.OrganizationID, params.Stage,
	); err != nil {
		return "", false, fmt.Errorf("update event stage: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO event_stage_history (id, organization_id, event_id, old_stage, new_stage, quotation_id, actor_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), params.OrganizationID, params.EventID, oldStage, params.Stage, params.QuotationID, params.ActorID, params.Reason,
	); err != nil {
		return "", false, fmt.Errorf("insert stage history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit stage change: %w", err)
	}
	return oldStage, true, nil
}

// ListStageHistory returns the stage changes of an event, oldest first.
func (r *Repository) ListStageHistory(ctx context.Context, eventID, orgID uuid.UUID) ([]StageChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, old_stage, new_stage, quotation_id, actor_id, reason, created_at
		FROM event_stage_history
		WHERE event_id = $1 AND organization_id = $2
		ORDER BY created_at`, eventID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	items := make([]StageChange, 0)
	for rows.Next() {
		var c StageChange
		if err := rows.Scan(&c.ID, &c.EventID, &c.OldStage, &c.NewStage, &c.QuotationID, &c.ActorID, &c.Reason, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stage history: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage history: %w", err)
	}
	return items, nil
}
