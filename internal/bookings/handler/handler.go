package handler

import (
	"net/http"

	"eventquote_backend/internal/bookings/service"
	"eventquote_backend/internal/bookings/transport"
	"eventquote_backend/platform/httpkit"
	"eventquote_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for bookings
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new bookings handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// mustGetTenantID extracts the tenant ID from identity and returns it.
func mustGetTenantID(c *gin.Context, identity httpkit.Identity) (uuid.UUID, bool) {
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.UUID{}, false
	}
	return *tenantID, true
}

// RegisterRoutes registers the booking routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

// List handles GET /api/v1/bookings?quotationId=|eventId=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.QuotationID == "" && req.EventID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "quotationId or eventId is required")
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	var quotationID, eventID *uuid.UUID
	if req.QuotationID != "" {
		id := uuid.MustParse(req.QuotationID)
		quotationID = &id
	} else {
		id := uuid.MustParse(req.EventID)
		eventID = &id
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, quotationID, eventID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
