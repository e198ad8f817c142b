package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CascadeRun is the journal header of one transition cascade
type CascadeRun struct {
	ID             uuid.UUID  `db:"id"`
	QuotationID    uuid.UUID  `db:"quotation_id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	EventID        uuid.UUID  `db:"event_id"`
	Action         string     `db:"action"`
	FromStatus     string     `db:"from_status"`
	ToStatus       string     `db:"to_status"`
	Partial        bool       `db:"partial"`
	CreatedBy      *uuid.UUID `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	Steps          []CascadeStep
}

// CascadeStep is the recorded outcome of one step in a run
type CascadeStep struct {
	RunID     uuid.UUID `db:"run_id"`
	Step      string    `db:"step"`
	Position  int       `db:"position"`
	Status    string    `db:"status"`
	Error     *string   `db:"error"`
	Attempts  int       `db:"attempts"`
	UpdatedAt time.Time `db:"updated_at"`
}

const cascadeRunNotFoundMsg = "cascade run not found"

// CreateCascadeRun stores a run and all of its step outcomes in one transaction
func (r *Repository) CreateCascadeRun(ctx context.Context, run *CascadeRun) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO quotation_cascade_runs (
			id, quotation_id, organization_id, event_id, action, from_status, to_status, partial,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.QuotationID, run.OrganizationID, run.EventID, run.Action, run.FromStatus, run.ToStatus,
		run.Partial, run.CreatedBy, run.CreatedAt, run.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert cascade run: %w", err)
	}

	for _, s := range run.Steps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quotation_cascade_steps (run_id, step, position, status, error, attempts, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, s.Step, s.Position, s.Status, s.Error, s.Attempts, s.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert cascade step: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateCascadeStep records a retried step and refreshes the run's partial flag
func (r *Repository) UpdateCascadeStep(ctx context.Context, orgID uuid.UUID, step CascadeStep) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE quotation_cascade_steps s SET status = $3, error = $4, attempts = $5, updated_at = $6
		FROM quotation_cascade_runs r
		WHERE s.run_id = $1 AND s.step = $2 AND r.id = s.run_id AND r.organization_id = $7`,
		step.RunID, step.Step, step.Status, step.Error, step.Attempts, step.UpdatedAt, orgID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update cascade step: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, apperr.NotFound("cascade step not found")
	}

	var partial bool
	if err := tx.QueryRow(ctx, `
		UPDATE quotation_cascade_runs SET
			partial = EXISTS (SELECT 1 FROM quotation_cascade_steps WHERE run_id = $1 AND status = 'failed'),
			updated_at = $2
		WHERE id = $1
		RETURNING partial`, step.RunID, step.UpdatedAt,
	).Scan(&partial); err != nil {
		return false, fmt.Errorf("failed to refresh cascade run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit cascade step: %w", err)
	}
	return partial, nil
}

// GetCascadeRun retrieves a run with its steps
func (r *Repository) GetCascadeRun(ctx context.Context, runID uuid.UUID, orgID uuid.UUID) (*CascadeRun, error) {
	var run CascadeRun
	err := r.pool.QueryRow(ctx, `
		SELECT id, quotation_id, organization_id, event_id, action, from_status, to_status, partial,
			created_by, created_at, updated_at
		FROM quotation_cascade_runs WHERE id = $1 AND organization_id = $2`, runID, orgID,
	).Scan(
		&run.ID, &run.QuotationID, &run.OrganizationID, &run.EventID, &run.Action, &run.FromStatus, &run.ToStatus,
		&run.Partial, &run.CreatedBy, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(cascadeRunNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get cascade run: %w", err)
	}

	steps, err := r.stepsForRuns(ctx, []uuid.UUID{run.ID})
	if err != nil {
		return nil, err
	}
	run.Steps = steps[run.ID]
	return &run, nil
}

// ListCascadeRuns returns the runs of a quotation, newest first
func (r *Repository) ListCascadeRuns(ctx context.Context, quotationID uuid.UUID, orgID uuid.UUID) ([]CascadeRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quotation_id, organization_id, event_id, action, from_status, to_status, partial,
			created_by, created_at, updated_at
		FROM quotation_cascade_runs WHERE quotation_id = $1 AND organization_id = $2
		ORDER BY created_at DESC`, quotationID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cascade runs: %w", err)
	}
	defer rows.Close()

	var runs []CascadeRun
	var ids []uuid.UUID
	for rows.Next() {
		var run CascadeRun
		if err := rows.Scan(
			&run.ID, &run.QuotationID, &run.OrganizationID, &run.EventID, &run.Action, &run.FromStatus, &run.ToStatus,
			&run.Partial, &run.CreatedBy, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cascade run: %w", err)
		}
		runs = append(runs, run)
		ids = append(ids, run.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cascade runs: %w", err)
	}
	if len(ids) == 0 {
		return runs, nil
	}

	steps, err := r.stepsForRuns(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		runs[i].Steps = steps[runs[i].ID]
	}
	return runs, nil
}

func (r *Repository) stepsForRuns(ctx context.Context, runIDs []uuid.UUID) (map[uuid.UUID][]CascadeStep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run_id, step, position, status, error, attempts, updated_at
		FROM quotation_cascade_steps WHERE run_id = ANY($1)
		ORDER BY run_id, position ASC`, runIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query cascade steps: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]CascadeStep, len(runIDs))
	for rows.Next() {
		var s CascadeStep
		if err := rows.Scan(&s.RunID, &s.Step, &s.Position, &s.Status, &s.Error, &s.Attempts, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cascade step: %w", err)
		}
		out[s.RunID] = append(out[s.RunID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cascade steps: %w", err)
	}
	return out, nil
}

// DeleteCompletedCascadeRunsBefore removes fully succeeded cascade runs last
// touched before the cutoff. Partial runs are kept so they stay retryable.
func (r *Repository) DeleteCompletedCascadeRunsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM quotation_cascade_runs
		WHERE partial = false AND updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete completed cascade runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
