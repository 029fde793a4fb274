package verification

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/upload"
)

// Handler exposes the verification workflow over HTTP.
type Handler struct {
	service *Service
	uploads *upload.Service
	logger  *zap.Logger
}

// NewHandler creates a verification handler.
func NewHandler(service *Service, uploads *upload.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		uploads: uploads,
		logger:  logger,
	}
}

// RegisterRoutes wires the participant-facing verification endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/verifications", h.Submit)
	rg.GET("/verifications", h.List)
	rg.GET("/verifications/:id", h.Get)
	rg.GET("/verifications/:id/photo", h.Photo)
}

// RegisterAdminRoutes wires the approval queue endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/verifications/:id/approve", h.Approve)
}

// Submit handles POST /verifications. It expects a multipart form with
// user, action and a photo file.
func (h *Handler) Submit(c *gin.Context) {
	user := c.PostForm("user")
	action := c.PostForm("action")

	header, err := c.FormFile("photo")
	if err != nil {
		header = nil
	}
	if strings.TrimSpace(user) == "" || strings.TrimSpace(action) == "" || header == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrMissingFields.Error()})
		return
	}

	stored, err := h.uploads.AcceptMultipart(c.Request.Context(), header)
	if err != nil {
		if errors.Is(err, upload.ErrNotImage) || errors.Is(err, upload.ErrTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to store proof image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded file"})
		return
	}

	result, err := h.service.Submit(c.Request.Context(), SubmitInput{
		User:   user,
		Action: action,
		File:   stored,
	})
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to submit verification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit verification"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List handles GET /verifications with optional status, action and user
// query filters.
func (h *Handler) List(c *gin.Context) {
	filter := Filter{
		Status: Status(c.Query("status")),
		Action: c.Query("action"),
		User:   c.Query("user"),
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list verifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list verifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verifications": items,
		"total":         len(items),
	})
}

// Get handles GET /verifications/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
			return
		}
		h.logger.Error("failed to load verification", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load verification"})
		return
	}

	c.JSON(http.StatusOK, v)
}

// Photo handles GET /verifications/:id/photo by redirecting to the stored
// proof image.
func (h *Handler) Photo(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
			return
		}
		h.logger.Error("failed to load verification", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load verification"})
		return
	}

	url, err := h.uploads.URL(c.Request.Context(), v.File.Filename)
	if err != nil {
		h.logger.Error("failed to resolve photo url",
			zap.Int64("id", id),
			zap.String("filename", v.File.Filename),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve photo url"})
		return
	}

	c.Redirect(http.StatusFound, url)
}

// Approve handles POST /admin/verifications/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
			return
		}
		h.logger.Error("failed to approve verification", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve verification"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}
