package export

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves administrative downloads.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an export handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes wires the export endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/export/:dataset", h.Download)
}

// Download handles GET /admin/export/:dataset?format=csv|xlsx|pdf.
func (h *Handler) Download(c *gin.Context) {
	dataset := Dataset(c.Param("dataset"))
	format := Format(c.DefaultQuery("format", string(FormatCSV)))

	export, err := h.service.Export(c.Request.Context(), dataset, format)
	if err != nil {
		if errors.Is(err, ErrUnknownDataset) || errors.Is(err, ErrUnknownFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to render export",
			zap.String("dataset", string(dataset)),
			zap.String("format", string(format)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
