// Package quotations provides the event quotation pricing and authorization module.
package quotations

import (
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/internal/quotations/handler"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/quotations/service"
	"eventquote_backend/platform/events"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotations domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotations module with its repository and service wired.
// Cascade collaborators, the archive store and the retry scheduler are attached
// afterwards through Service() because they live in other modules.
func NewModule(
	pool *pgxpool.Pool,
	eventBus *events.InMemoryBus,
	val *validator.Validator,
	catalog service.CatalogReader,
	config service.PricingConfigReader,
	drafts service.DraftStore,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, config, drafts, log)
	svc.SetEventBus(eventBus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotations"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotations := ctx.Protected.Group("/quotations")
	m.handler.RegisterRoutes(quotations)

	drafts := ctx.Protected.Group("/quotation-drafts")
	m.handler.RegisterDraftRoutes(drafts)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
