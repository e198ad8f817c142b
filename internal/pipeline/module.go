// Package pipeline provides the client event module and its sales pipeline stage.
package pipeline

import (
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/internal/pipeline/handler"
	"eventquote_backend/internal/pipeline/repository"
	"eventquote_backend/internal/pipeline/service"
	"eventquote_backend/platform/events"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the pipeline domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new pipeline module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus *events.InMemoryBus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	svc.SetEventBus(eventBus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/events"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
