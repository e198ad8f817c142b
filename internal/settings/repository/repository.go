// Package repository stores per-organization pricing configuration.
package repository

import (
	"context"
	"errors"
	"fmt"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const conditionNotFoundMessage = "commercial condition not found"

// Repository provides pricing configuration storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new settings repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetPricingConfiguration loads margins, guardrail thresholds and payment
// surcharges. found is false when the organization never saved its own.
func (r *Repository) GetPricingConfiguration(ctx context.Context, orgID uuid.UUID) (cfg pricing.Configuration, found bool, err error) {
	var marginService, marginProduct decimal.Decimal
	var policy pricing.GuardrailPolicy
	err = r.pool.QueryRow(ctx, `
		SELECT margin_service, margin_product, guardrail_variance_pct, guardrail_variance_abs, guardrail_min_margin
		FROM pricing_configurations
		WHERE organization_id = $1`, orgID,
	).Scan(&marginService, &marginProduct, &policy.MaxVariancePct, &policy.MaxVarianceAbs, &policy.MinMargin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Configuration{}, false, nil
		}
		return pricing.Configuration{}, false, fmt.Errorf("get pricing configuration: %w", err)
	}

	cfg = pricing.Configuration{
		TargetMargins: map[pricing.UtilityType]decimal.Decimal{
			pricing.UtilityService: marginService,
			pricing.UtilityProduct: marginProduct,
		},
		PaymentSurcharges: map[string]decimal.Decimal{},
		Guardrail:         policy,
	}

	rows, err := r.pool.Query(ctx, `
		SELECT method, rate FROM payment_method_surcharges WHERE organization_id = $1`, orgID)
	if err != nil {
		return pricing.Configuration{}, false, fmt.Errorf("list payment surcharges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var method string
		var rate decimal.Decimal
		if err := rows.Scan(&method, &rate); err != nil {
			return pricing.Configuration{}, false, fmt.Errorf("scan payment surcharge: %w", err)
		}
		cfg.PaymentSurcharges[method] = rate
	}
	if err := rows.Err(); err != nil {
		return pricing.Configuration{}, false, fmt.Errorf("iterate payment surcharges: %w", err)
	}

	return cfg, true, nil
}

// SavePricingConfiguration upserts margins and thresholds and replaces the
// surcharge table in one transaction.
func (r *Repository) SavePricingConfiguration(ctx context.Context, orgID uuid.UUID, cfg pricing.Configuration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin pricing configuration tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO pricing_configurations (
			organization_id, margin_service, margin_product,
			guardrail_variance_pct, guardrail_variance_abs, guardrail_min_margin, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (organization_id) DO UPDATE SET
			margin_service = EXCLUDED.margin_service,
			margin_product = EXCLUDED.margin_product,
			guardrail_variance_pct = EXCLUDED.guardrail_variance_pct,
			guardrail_variance_abs = EXCLUDED.guardrail_variance_abs,
			guardrail_min_margin = EXCLUDED.guardrail_min_margin,
			updated_at = now()`,
		orgID,
		cfg.TargetMargins[pricing.UtilityService],
		cfg.TargetMargins[pricing.UtilityProduct],
		cfg.Guardrail.MaxVariancePct,
		cfg.Guardrail.MaxVarianceAbs,
		cfg.Guardrail.MinMargin,
	)
	if err != nil {
		return fmt.Errorf("upsert pricing configuration: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payment_method_surcharges WHERE organization_id = $1`, orgID); err != nil {
		return fmt.Errorf("clear payment surcharges: %w", err)
	}

	batch := &pgx.Batch{}
	for method, rate := range cfg.PaymentSurcharges {
		batch.Queue(`INSERT INTO payment_method_surcharges (organization_id, method, rate) VALUES ($1, $2, $3)`, orgID, method, rate)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert payment surcharges: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit pricing configuration: %w", err)
	}
	return nil
}

// ListCommercialConditions returns the organization's discount conditions.
func (r *Repository) ListCommercialConditions(ctx context.Context, orgID uuid.UUID) ([]pricing.CommercialCondition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, discount_rate, COALESCE(payment_method, '')
		FROM commercial_conditions
		WHERE organization_id = $1
		ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list commercial conditions: %w", err)
	}
	defer rows.Close()

	items := make([]pricing.CommercialCondition, 0)
	for rows.Next() {
		var c pricing.CommercialCondition
		if err := rows.Scan(&c.ID, &c.Name, &c.DiscountRate, &c.PaymentMethod); err != nil {
			return nil, fmt.Errorf("scan commercial condition: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commercial conditions: %w", err)
	}
	return items, nil
}

// CreateCommercialCondition inserts a discount condition.
func (r *Repository) CreateCommercialCondition(ctx context.Context, orgID uuid.UUID, c pricing.CommercialCondition) (pricing.CommercialCondition, error) {
	c.ID = uuid.New()
	var method *string
	if c.PaymentMethod != "" {
		method = &c.PaymentMethod
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO commercial_conditions (id, organization_id, name, discount_rate, payment_method)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, orgID, c.Name, c.DiscountRate, method,
	)
	if err != nil {
		return pricing.CommercialCondition{}, fmt.Errorf("create commercial condition: %w", err)
	}
	return c, nil
}

// DeleteCommercialCondition removes a discount condition. Quotations that used
// it keep their snapshot prices.
func (r *Repository) DeleteCommercialCondition(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM commercial_conditions WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete commercial condition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conditionNotFoundMessage)
	}
	return nil
}
