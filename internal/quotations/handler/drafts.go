package handler

import (
	"context"
	"net/http"

	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateDraft handles POST /api/v1/quotation-drafts
func (h *Handler) CreateDraft(c *gin.Context) {
	var req transport.CreateDraftRequest
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
	result, err := h.svc.CreateDraft(c.Request.Context(), tenantID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// GetDraft handles GET /api/v1/quotation-drafts/:id
func (h *Handler) GetDraft(c *gin.Context) {
	h.draftAction(c, h.svc.GetDraft)
}

// UpdateDraftLines handles PUT /api/v1/quotation-drafts/:id/lines
func (h *Handler) UpdateDraftLines(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.UpdateDraftLinesRequest
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

	result, err := h.svc.UpdateDraftLines(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateDraftDetails handles PATCH /api/v1/quotation-drafts/:id
func (h *Handler) UpdateDraftDetails(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.UpdateDraftDetailsRequest
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

	result, err := h.svc.UpdateDraftDetails(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// BeginTotalEdit handles POST /api/v1/quotation-drafts/:id/total/edit
func (h *Handler) BeginTotalEdit(c *gin.Context) {
	h.draftAction(c, h.svc.BeginTotalEdit)
}

// ProposeTotal handles PUT /api/v1/quotation-drafts/:id/total
// A total outside the guardrail stays pending and answers 422 with the analysis.
func (h *Handler) ProposeTotal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.ProposeTotalRequest
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

	result, err := h.svc.ProposeDraftTotal(c.Request.Context(), tenantID, id, req.Total)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ConfirmTotal handles POST /api/v1/quotation-drafts/:id/total/confirm
func (h *Handler) ConfirmTotal(c *gin.Context) {
	h.draftAction(c, h.svc.ConfirmDraftTotal)
}

// DiscardTotal handles POST /api/v1/quotation-drafts/:id/total/discard
func (h *Handler) DiscardTotal(c *gin.Context) {
	h.draftAction(c, h.svc.DiscardDraftTotal)
}

// RestoreAutomatic handles POST /api/v1/quotation-drafts/:id/total/restore-automatic
func (h *Handler) RestoreAutomatic(c *gin.Context) {
	h.draftAction(c, h.svc.RestoreAutomaticTotal)
}

// DeleteDraft handles DELETE /api/v1/quotation-drafts/:id
func (h *Handler) DeleteDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteDraft(c.Request.Context(), tenantID, id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "draft discarded"})
}

// SubmitDraft handles POST /api/v1/quotation-drafts/:id/submit
func (h *Handler) SubmitDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.SubmitDraft(c.Request.Context(), tenantID, identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

type draftFunc func(ctx context.Context, orgID, draftID uuid.UUID) (*transport.DraftResponse, error)

func (h *Handler) draftAction(c *gin.Context, fn draftFunc) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
