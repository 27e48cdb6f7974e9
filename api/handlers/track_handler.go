package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/osz-extract-go/internal/domain"
	"go.uber.org/zap"
)

// TrackService is the library view the API exposes
type TrackService interface {
	Tracks(ctx context.Context) ([]domain.PersistedTrack, error)
	Track(ctx context.Context, id string) (*domain.PersistedTrack, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// TrackHandler handles library track requests
type TrackHandler struct {
	library TrackService
	logger  *zap.Logger
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(library TrackService, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		library: library,
		logger:  logger,
	}
}

// ListTracks handles GET /api/v1/tracks
func (h *TrackHandler) ListTracks(c *gin.Context) {
	tracks, err := h.library.Tracks(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list tracks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tracks == nil {
		tracks = []domain.PersistedTrack{}
	}

	c.JSON(http.StatusOK, tracks)
}

// GetTrack handles GET /api/v1/tracks/:id
func (h *TrackHandler) GetTrack(c *gin.Context) {
	track, err := h.library.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to get track", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if track == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	c.JSON(http.StatusOK, track)
}

// DeleteTrack handles DELETE /api/v1/tracks/:id
func (h *TrackHandler) DeleteTrack(c *gin.Context) {
	id := c.Param("id")

	removed, err := h.library.Remove(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to remove track", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "track removed"})
}
