package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the latest audit report over HTTP.
type Handler struct {
	auditor *Auditor
}

// NewHandler creates an audit handler.
func NewHandler(auditor *Auditor) *Handler {
	return &Handler{auditor: auditor}
}

// RegisterRoutes wires the audit endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit", h.Latest)
}

// Latest handles GET /admin/audit. Until a first sweep completes there is
// nothing to report and the endpoint returns 404.
func (h *Handler) Latest(c *gin.Context) {
	report, ok := h.auditor.Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audit sweep has completed yet"})
		return
	}

	c.JSON(http.StatusOK, report)
}
