package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/api/handlers"
	"github.com/yourusername/osz-extract-go/api/middleware"
	"github.com/yourusername/osz-extract-go/pkg/logger"
)

// Acquisitions is what the router needs from the orchestrator
type Acquisitions interface {
	handlers.AcquisitionService
	handlers.ActiveCounter
}

// RouterConfig collects the router dependencies
type RouterConfig struct {
	Acquisitions Acquisitions
	Library      handlers.TrackService
	Store        handlers.Pinger
	Logger       *zap.Logger
	EventLogger  *logger.MultiLogger
	LogsDir      string
}

// SetupRouter sets up the HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(cfg.Logger, cfg.EventLogger))
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.Acquisitions)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		acquisitionHandler := handlers.NewAcquisitionHandler(cfg.Acquisitions, cfg.Logger)
		streamHandler := handlers.NewProgressWebSocketHandler(cfg.Acquisitions, cfg.Logger)
		acquisitions := v1.Group("/acquisitions")
		{
			acquisitions.POST("", acquisitionHandler.Acquire)
			acquisitions.GET("", acquisitionHandler.ListAcquisitions)
			acquisitions.GET("/stream", streamHandler.HandleWebSocket)
			acquisitions.GET("/:id", acquisitionHandler.GetAcquisition)
			acquisitions.DELETE("/:id", acquisitionHandler.CancelAcquisition)
		}

		trackHandler := handlers.NewTrackHandler(cfg.Library, cfg.Logger)
		tracks := v1.Group("/tracks")
		{
			tracks.GET("", trackHandler.ListTracks)
			tracks.GET("/:id", trackHandler.GetTrack)
			tracks.DELETE("/:id", trackHandler.DeleteTrack)
		}

		logHandler := handlers.NewLogHandler(cfg.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
