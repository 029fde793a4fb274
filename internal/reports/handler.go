package reports

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

// Handler exposes community reports over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a report handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes wires the report endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", h.Submit)
	rg.GET("/reports", h.List)
	rg.GET("/reports/:id", h.Get)
}

// Submit handles POST /reports with a free-form JSON body.
func (h *Handler) Submit(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	created, err := h.service.Submit(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to store report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List handles GET /reports. With lat, lng and radius_km query parameters it
// narrows to geolocated reports within the radius.
func (h *Handler) List(c *gin.Context) {
	latStr, lngStr, radiusStr := c.Query("lat"), c.Query("lng"), c.Query("radius_km")

	var (
		records []recordstore.Record
		err     error
	)
	if latStr == "" && lngStr == "" && radiusStr == "" {
		records, err = h.service.List(c.Request.Context())
	} else {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		radius, radiusErr := strconv.ParseFloat(radiusStr, 64)
		if latErr != nil || lngErr != nil || radiusErr != nil || radius <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng and radius_km must be numbers"})
			return
		}
		records, err = h.service.ListNear(c.Request.Context(), lat, lng, radius)
	}
	if err != nil {
		h.logger.Error("failed to list reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": records,
		"total":   len(records),
	})
}

// Get handles GET /reports/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("failed to load report", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
