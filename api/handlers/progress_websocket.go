package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressLister returns the current progress entries
type ProgressLister interface {
	List() []domain.DownloadProgress
}

// ProgressWebSocketHandler streams progress snapshots to WebSocket clients
type ProgressWebSocketHandler struct {
	progress     ProgressLister
	logger       *zap.Logger
	pollInterval time.Duration
	pingInterval time.Duration
}

// NewProgressWebSocketHandler creates a new progress stream handler
func NewProgressWebSocketHandler(progress ProgressLister, log *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		progress:     progress,
		logger:       log,
		pollInterval: 500 * time.Millisecond,
		pingInterval: 30 * time.Second,
	}
}

// HandleWebSocket handles GET /api/v1/acquisitions/stream.
// A snapshot of every entry is sent on connect and whenever the entries change.
func (h *ProgressWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Progress stream client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	// Read messages from client so close frames and pongs are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var last []byte
	send := func() bool {
		data, err := json.Marshal(h.progress.List())
		if err != nil {
			h.logger.Error("Failed to marshal progress snapshot", zap.Error(err))
			return true
		}
		if string(data) == string(last) {
			return true
		}
		last = data
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("Progress stream closed", zap.Error(err))
			return false
		}
		return true
	}

	if !send() {
		return
	}

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-poll.C:
			if !send() {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
