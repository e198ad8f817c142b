package handler

import (
	"net/http"
	"strconv"

	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/internal/quotations/service"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/httpkit"
	"eventquote_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for quotations and their drafts
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotations handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the quotation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Submit)
	rg.POST("/calculate", h.Calculate)
	rg.GET("/catalog", h.PricedCatalog)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Resubmit)
	rg.POST("/:id/transitions", h.Transition)
	rg.GET("/:id/cascades", h.ListCascadeRuns)
	rg.POST("/:id/cascades/:runId/steps/:step/retry", h.RetryCascadeStep)
	rg.GET("/:id/delete-check", h.DeleteCheck)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/archive", h.Archive)
}

// RegisterDraftRoutes registers the editing session routes
func (h *Handler) RegisterDraftRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateDraft)
	rg.GET("/:id", h.GetDraft)
	rg.DELETE("/:id", h.DeleteDraft)
	rg.PUT("/:id/lines", h.UpdateDraftLines)
	rg.PATCH("/:id", h.UpdateDraftDetails)
	rg.POST("/:id/total/edit", h.BeginTotalEdit)
	rg.PUT("/:id/total", h.ProposeTotal)
	rg.POST("/:id/total/confirm", h.ConfirmTotal)
	rg.POST("/:id/total/discard", h.DiscardTotal)
	rg.POST("/:id/total/restore-automatic", h.RestoreAutomatic)
	rg.POST("/:id/submit", h.SubmitDraft)
}

// Calculate handles POST /api/v1/quotations/calculate
// Returns computed totals without persisting anything.
func (h *Handler) Calculate(c *gin.Context) {
	var req transport.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ComputeTotals(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// PricedCatalog handles GET /api/v1/quotations/catalog
func (h *Handler) PricedCatalog(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	eventTypeID, ok := optionalUUIDQuery(c, "eventTypeId")
	if !ok {
		return
	}
	conditionID, ok := optionalUUIDQuery(c, "commercialConditionId")
	if !ok {
		return
	}

	result, err := h.svc.PricedCatalog(c.Request.Context(), tenantID, eventTypeID, c.Query("paymentMethod"), conditionID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": result})
}

// List handles GET /api/v1/quotations
func (h *Handler) List(c *gin.Context) {
	var req transport.ListQuotationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Submit handles POST /api/v1/quotations
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.Submit(c.Request.Context(), tenantID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// GetByID handles GET /api/v1/quotations/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Resubmit handles PUT /api/v1/quotations/:id
// Replaces the whole line snapshot of a pending or authorized quotation.
func (h *Handler) Resubmit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.SubmitQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Resubmit(c.Request.Context(), id, tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Transition handles POST /api/v1/quotations/:id/transitions
// A cascade with failed steps answers 207 Multi-Status with per-step results.
func (h *Handler) Transition(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.Transition(c.Request.Context(), tenantID, identity.UserID(), id, req.Action)
	if httpkit.HandleError(c, err) {
		return
	}

	if result.Partial {
		httpkit.JSON(c, http.StatusMultiStatus, result)
		return
	}
	httpkit.OK(c, result)
}

// ListCascadeRuns handles GET /api/v1/quotations/:id/cascades
func (h *Handler) ListCascadeRuns(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListCascadeRuns(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": result})
}

// RetryCascadeStep handles POST /api/v1/quotations/:id/cascades/:runId/steps/:step/retry
func (h *Handler) RetryCascadeStep(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	runID, ok := parseIDParam(c, "runId")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.RetryCascadeStep(c.Request.Context(), tenantID, identity.UserID(), id, runID, c.Param("step"))
	if httpkit.HandleError(c, err) {
		return
	}

	if result.Status == string(lifecycle.StepFailed) {
		httpkit.JSON(c, http.StatusMultiStatus, result)
		return
	}
	httpkit.OK(c, result)
}

// DeleteCheck handles GET /api/v1/quotations/:id/delete-check
func (h *Handler) DeleteCheck(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.DeleteCheck(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Delete handles DELETE /api/v1/quotations/:id?confirm=true
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	confirm, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id, confirm); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "quotation deleted"})
}

// Archive handles POST /api/v1/quotations/:id/archive
func (h *Handler) Archive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Archive(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func mustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.UUID{}, false
	}
	return *tenantID, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, name+" must be a UUID")
		return nil, false
	}
	return &id, true
}
