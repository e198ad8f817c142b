// Package settings provides the pricing configuration module: target margins,
// payment surcharges, commercial conditions and guardrail thresholds.
package settings

import (
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/settings/handler"
	"eventquote_backend/internal/settings/repository"
	"eventquote_backend/internal/settings/service"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the settings domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the settings module. cache may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, cache service.Cache, defaults pricing.Configuration, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cache, defaults, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "settings"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/pricing-configuration", m.handler.GetPricingConfiguration)

	admin := ctx.Admin.Group("/pricing-configuration")
	admin.PUT("", m.handler.UpdatePricingConfiguration)
	admin.POST("/commercial-conditions", m.handler.CreateCommercialCondition)
	admin.DELETE("/commercial-conditions/:id", m.handler.DeleteCommercialCondition)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
