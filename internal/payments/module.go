// Package payments provides the payment ledger module.
package payments

import (
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/internal/payments/gateway"
	"eventquote_backend/internal/payments/handler"
	"eventquote_backend/internal/payments/repository"
	"eventquote_backend/internal/payments/service"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the payments domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new payments module. refunder may be nil.
func NewModule(pool *pgxpool.Pool, refunder gateway.Refunder, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), refunder, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "payments"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/payments"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
