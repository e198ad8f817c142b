// Package service resolves the pricing configuration of an organization:
// saved settings, falling back to the defaults, cached in Redis.
package service

import (
	"context"
	"strings"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/settings/transport"
	"eventquote_backend/platform/apperr"
	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Store is the persistence port of the settings service.
type Store interface {
	GetPricingConfiguration(ctx context.Context, orgID uuid.UUID) (pricing.Configuration, bool, error)
	SavePricingConfiguration(ctx context.Context, orgID uuid.UUID, cfg pricing.Configuration) error
	ListCommercialConditions(ctx context.Context, orgID uuid.UUID) ([]pricing.CommercialCondition, error)
	CreateCommercialCondition(ctx context.Context, orgID uuid.UUID, c pricing.CommercialCondition) (pricing.CommercialCondition, error)
	DeleteCommercialCondition(ctx context.Context, orgID, id uuid.UUID) error
}

// Service provides pricing configuration reads and admin updates.
type Service struct {
	repo     Store
	cache    Cache
	defaults pricing.Configuration
	group    singleflight.Group
	log      *logger.Logger
}

// New creates a settings service. cache may be nil.
func New(repo Store, cache Cache, defaults pricing.Configuration, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, defaults: defaults, log: log}
}

// FetchPricingConfiguration returns the configuration used by the rate model.
// Concurrent misses for the same organization share one database load.
func (s *Service) FetchPricingConfiguration(ctx context.Context, orgID uuid.UUID) (pricing.Configuration, error) {
	if s.cache != nil {
		cfg, ok, err := s.cache.Get(ctx, orgID)
		if err != nil {
			s.log.Warn("pricing configuration cache read failed", "organizationId", orgID, "error", err)
		} else if ok {
			return cfg, nil
		}
	}

	v, err, _ := s.group.Do(orgID.String(), func() (interface{}, error) {
		cfg, err := s.load(ctx, orgID)
		if err != nil {
			return pricing.Configuration{}, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, orgID, cfg); err != nil {
				s.log.Warn("pricing configuration cache write failed", "organizationId", orgID, "error", err)
			}
		}
		return cfg, nil
	})
	if err != nil {
		return pricing.Configuration{}, err
	}
	return v.(pricing.Configuration), nil
}

func (s *Service) load(ctx context.Context, orgID uuid.UUID) (pricing.Configuration, error) {
	cfg, found, err := s.repo.GetPricingConfiguration(ctx, orgID)
	if err != nil {
		return pricing.Configuration{}, err
	}
	if !found {
		cfg = cloneConfiguration(s.defaults)
	}

	conditions, err := s.repo.ListCommercialConditions(ctx, orgID)
	if err != nil {
		return pricing.Configuration{}, err
	}
	cfg.CommercialConditions = conditions
	return cfg, nil
}

// GetPricingConfiguration returns the resolved configuration for display.
func (s *Service) GetPricingConfiguration(ctx context.Context, orgID uuid.UUID) (transport.PricingConfigurationResponse, error) {
	cfg, err := s.FetchPricingConfiguration(ctx, orgID)
	if err != nil {
		return transport.PricingConfigurationResponse{}, err
	}
	return toResponse(cfg), nil
}

// UpdatePricingConfiguration saves margins, surcharges and guardrail thresholds.
func (s *Service) UpdatePricingConfiguration(ctx context.Context, orgID uuid.UUID, req transport.UpdatePricingConfigurationRequest) (transport.PricingConfigurationResponse, error) {
	cfg := pricing.Configuration{
		TargetMargins: map[pricing.UtilityType]decimal.Decimal{
			pricing.UtilityService: req.ServiceMargin,
			pricing.UtilityProduct: req.ProductMargin,
		},
		PaymentSurcharges: map[string]decimal.Decimal{},
		Guardrail: pricing.GuardrailPolicy{
			MaxVariancePct: req.Guardrail.MaxVariancePct,
			MaxVarianceAbs: req.Guardrail.MaxVarianceAbs,
			MinMargin:      req.Guardrail.MinMargin,
		},
	}
	for method, rate := range req.PaymentSurcharges {
		cfg.PaymentSurcharges[strings.TrimSpace(method)] = rate
	}

	if fields := validateConfiguration(cfg); len(fields) > 0 {
		return transport.PricingConfigurationResponse{}, apperr.Validation("invalid pricing configuration").WithDetails(fields)
	}

	if err := s.repo.SavePricingConfiguration(ctx, orgID, cfg); err != nil {
		return transport.PricingConfigurationResponse{}, err
	}
	s.invalidate(ctx, orgID)

	s.log.Info("pricing configuration updated", "organizationId", orgID)
	return s.GetPricingConfiguration(ctx, orgID)
}

// CreateCommercialCondition adds a named discount.
func (s *Service) CreateCommercialCondition(ctx context.Context, orgID uuid.UUID, req transport.CreateCommercialConditionRequest) (transport.CommercialConditionResponse, error) {
	if req.DiscountRate.IsNegative() || req.DiscountRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return transport.CommercialConditionResponse{}, apperr.Validation("invalid commercial condition").
			WithDetails(pricing.FieldErrors{"discountRate": "must be in [0, 1)"})
	}

	created, err := s.repo.CreateCommercialCondition(ctx, orgID, pricing.CommercialCondition{
		Name:          strings.TrimSpace(req.Name),
		DiscountRate:  req.DiscountRate,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		return transport.CommercialConditionResponse{}, err
	}
	s.invalidate(ctx, orgID)

	s.log.Info("commercial condition created", "id", created.ID, "name", created.Name)
	return toConditionResponse(created), nil
}

// DeleteCommercialCondition removes a named discount.
func (s *Service) DeleteCommercialCondition(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.DeleteCommercialCondition(ctx, orgID, id); err != nil {
		return err
	}
	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, orgID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, orgID); err != nil {
		s.log.Warn("pricing configuration cache invalidation failed", "organizationId", orgID, "error", err)
	}
}

func validateConfiguration(cfg pricing.Configuration) pricing.FieldErrors {
	one := decimal.NewFromInt(1)
	fields := pricing.FieldErrors{}

	for _, utility := range []pricing.UtilityType{pricing.UtilityService, pricing.UtilityProduct} {
		m, ok := cfg.TargetMargins[utility]
		if !ok || m.IsNegative() || m.GreaterThanOrEqual(one) {
			fields["targetMargins."+string(utility)] = "must be in [0, 1)"
		}
	}
	for method, rate := range cfg.PaymentSurcharges {
		if method == "" {
			fields["paymentSurcharges"] = "method must not be empty"
		} else if rate.IsNegative() {
			fields["paymentSurcharges."+method] = "must not be negative"
		}
	}
	if cfg.Guardrail.MaxVariancePct.IsNegative() {
		fields["guardrail.maxVariancePct"] = "must not be negative"
	}
	if cfg.Guardrail.MaxVarianceAbs.IsNegative() {
		fields["guardrail.maxVarianceAbs"] = "must not be negative"
	}
	if cfg.Guardrail.MinMargin.IsNegative() || cfg.Guardrail.MinMargin.GreaterThanOrEqual(one) {
		fields["guardrail.minMargin"] = "must be in [0, 1)"
	}
	return fields
}

func cloneConfiguration(cfg pricing.Configuration) pricing.Configuration {
	out := cfg
	out.TargetMargins = make(map[pricing.UtilityType]decimal.Decimal, len(cfg.TargetMargins))
	for k, v := range cfg.TargetMargins {
		out.TargetMargins[k] = v
	}
	out.PaymentSurcharges = make(map[string]decimal.Decimal, len(cfg.PaymentSurcharges))
	for k, v := range cfg.PaymentSurcharges {
		out.PaymentSurcharges[k] = v
	}
	out.CommercialConditions = nil
	return out
}

func toResponse(cfg pricing.Configuration) transport.PricingConfigurationResponse {
	resp := transport.PricingConfigurationResponse{
		ServiceMargin:        cfg.TargetMargins[pricing.UtilityService].String(),
		ProductMargin:        cfg.TargetMargins[pricing.UtilityProduct].String(),
		PaymentSurcharges:    make(map[string]string, len(cfg.PaymentSurcharges)),
		CommercialConditions: make([]transport.CommercialConditionResponse, 0, len(cfg.CommercialConditions)),
		Guardrail: transport.GuardrailResponse{
			MaxVariancePct: cfg.Guardrail.MaxVariancePct.String(),
			MaxVarianceAbs: cfg.Guardrail.MaxVarianceAbs.StringFixed(2),
			MinMargin:      cfg.Guardrail.MinMargin.String(),
		},
	}
	for method, rate := range cfg.PaymentSurcharges {
		resp.PaymentSurcharges[method] = rate.String()
	}
	for _, c := range cfg.CommercialConditions {
		resp.CommercialConditions = append(resp.CommercialConditions, toConditionResponse(c))
	}
	return resp
}

func toConditionResponse(c pricing.CommercialCondition) transport.CommercialConditionResponse {
	return transport.CommercialConditionResponse{
		ID:            c.ID,
		Name:          c.Name,
		DiscountRate:  c.DiscountRate.String(),
		PaymentMethod: c.PaymentMethod,
	}
}
