package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boutique/backend/internal/infrastructure/logger"
	"github.com/boutique/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DatabaseProbe is the part of the database the health check uses
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Stats() persistence.ConnectionStats
}

// HealthHandler answers liveness checks
type HealthHandler struct {
	db        DatabaseProbe
	version   string
	startedAt time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabaseProbe, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, startedAt: time.Now()}
}

// HealthResponse is the /health body
type HealthResponse struct {
	Status      string `json:"status" example:"healthy"`
	Database    string `json:"database" example:"connected"`
	Version     string `json:"version,omitempty" example:"1.0.0"`
	Uptime      string `json:"uptime" example:"1h2m3s"`
	Connections int    `json:"open_connections"`
	InUse       int    `json:"in_use_connections"`
	Timestamp   string `json:"timestamp"`
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	stats := h.db.Stats()
	resp.Connections = stats.Open
	resp.InUse = stats.InUse
	c.JSON(http.StatusOK, resp)
}
