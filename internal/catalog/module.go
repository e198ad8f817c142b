// Package catalog provides the service catalog bounded context module.
package catalog

import (
	"eventquote_backend/internal/catalog/handler"
	"eventquote_backend/internal/catalog/repository"
	"eventquote_backend/internal/catalog/service"
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/catalog", m.handler.GetCatalog)
	ctx.Protected.GET("/catalog/services/:id", m.handler.GetServiceByID)

	adminGroup := ctx.Admin.Group("/catalog")
	adminGroup.POST("/services", m.handler.CreateService)
	adminGroup.PUT("/services/:id", m.handler.UpdateService)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
