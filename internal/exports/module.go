package exports

import (
	apphttp "eventquote_backend/internal/http"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(quotations QuotationReader) *Module {
	return &Module{handler: NewHandler(quotations)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/quotations/:id/export.xlsx", m.handler.ExportQuotationXLSX)
}

var _ apphttp.Module = (*Module)(nil)
