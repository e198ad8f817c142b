package exports

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	noOrgContextMsg = "no organization context"
)

// QuotationReader loads a persisted quotation snapshot.
type QuotationReader interface {
	GetByID(ctx context.Context, orgID, quotationID uuid.UUID) (*transport.QuotationResponse, error)
}

// Handler handles export requests.
type Handler struct {
	quotations QuotationReader
}

// NewHandler creates a new export handler.
func NewHandler(quotations QuotationReader) *Handler {
	return &Handler{quotations: quotations}
}

// ExportQuotationXLSX handles GET /api/v1/quotations/:id/export.xlsx
func (h *Handler) ExportQuotationXLSX(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusForbidden, noOrgContextMsg, nil)
		return
	}

	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid quotation id", nil)
		return
	}

	q, err := h.quotations.GetByID(c.Request.Context(), *tenantID, quotationID)
	if httpkit.HandleError(c, err) {
		return
	}

	body, err := BuildQuotationWorkbook(q)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to build export", nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFileName(q)))
	c.Data(http.StatusOK, xlsxContentType, body)
}

func exportFileName(q *transport.QuotationResponse) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, q.Name)
	if name == "" {
		name = "quotation"
	}
	return fmt.Sprintf("%s-%s.xlsx", name, q.ID.String()[:8])
}
