package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/osz-extract-go/internal/domain"
	"go.uber.org/zap"
)

// AcquisitionService is the part of the orchestrator the API drives
type AcquisitionService interface {
	Submit(ctx context.Context, req domain.DownloadRequest) (domain.Acceptance, error)
	Progress(contentID int) (domain.DownloadProgress, bool)
	List() []domain.DownloadProgress
	Cancel(contentID int) bool
}

// AcquisitionHandler handles acquisition-related HTTP requests
type AcquisitionHandler struct {
	service AcquisitionService
	logger  *zap.Logger
}

// NewAcquisitionHandler creates a new acquisition handler
func NewAcquisitionHandler(service AcquisitionService, logger *zap.Logger) *AcquisitionHandler {
	return &AcquisitionHandler{
		service: service,
		logger:  logger,
	}
}

// AcquireRequest represents a request to acquire a beatmapset
type AcquireRequest struct {
	ContentID   int    `json:"content_id" binding:"required"`
	Title       string `json:"title"`
	AccessToken string `json:"access_token,omitempty"`
}

// Acquire handles POST /api/v1/acquisitions
func (h *AcquisitionHandler) Acquire(c *gin.Context) {
	var req AcquireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := req.AccessToken
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}

	acceptance, err := h.service.Submit(c.Request.Context(), domain.DownloadRequest{
		ContentID:   req.ContentID,
		Title:       req.Title,
		AccessToken: token,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("Failed to accept acquisition", zap.Int("content_id", req.ContentID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, acceptance)
}

// ListAcquisitions handles GET /api/v1/acquisitions
func (h *AcquisitionHandler) ListAcquisitions(c *gin.Context) {
	entries := h.service.List()
	if status := c.Query("status"); status != "" {
		filtered := make([]domain.DownloadProgress, 0, len(entries))
		for _, p := range entries {
			if string(p.Status) == status {
				filtered = append(filtered, p)
			}
		}
		entries = filtered
	}

	c.JSON(http.StatusOK, entries)
}

// GetAcquisition handles GET /api/v1/acquisitions/:id
func (h *AcquisitionHandler) GetAcquisition(c *gin.Context) {
	id, ok := contentIDParam(c)
	if !ok {
		return
	}

	progress, found := h.service.Progress(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "acquisition not found"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CancelAcquisition handles DELETE /api/v1/acquisitions/:id
func (h *AcquisitionHandler) CancelAcquisition(c *gin.Context) {
	id, ok := contentIDParam(c)
	if !ok {
		return
	}

	if !h.service.Cancel(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no acquisition in progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "acquisition cancelled"})
}

func contentIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content id"})
		return 0, false
	}
	return id, true
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
