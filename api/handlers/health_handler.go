package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ActiveCounter reports how many acquisitions are running
type ActiveCounter interface {
	ActiveCount() int
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store  Pinger
	active ActiveCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, active ActiveCounter) *HealthHandler {
	return &HealthHandler{
		store:  store,
		active: active,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Acquisitions struct {
		Active int `json:"active"`
	} `json:"acquisitions"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Acquisitions.Active = h.active.ActiveCount()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "track store unavailable: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
