package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

// Handler exposes the ledger over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a ledger handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires the ledger endpoints into a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.ListUsers)
	rg.POST("/users", h.UpsertUser)
	rg.GET("/users/:name", h.GetUser)
	rg.GET("/leaderboard", h.Leaderboard)
}

// ListUsers returns every ledger entry as stored.
func (h *Handler) ListUsers(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list ledger entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": records, "total": len(records)})
}

// UpsertUser merges the posted fields onto the named entry.
func (h *Handler) UpsertUser(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.service.Upsert(c.Request.Context(), fields)
	if err != nil {
		if errors.Is(err, ErrMissingName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to upsert ledger entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upsert user"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetUser returns one entry by exact name.
func (h *Handler) GetUser(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("failed to load ledger entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Leaderboard returns ranked standings, optionally limited.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	standings, err := h.service.Standings(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to build leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": standings, "total": len(standings)})
}
