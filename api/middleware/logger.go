package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/osz-extract-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for logging.
// Server errors are also written to the error category log when events is not nil.
func Logger(log *zap.Logger, events *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		log.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", clientIP),
		)

		if statusCode >= 500 && events != nil {
			events.LogAppError("HTTP error response",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", statusCode),
				zap.String("client_ip", clientIP),
				zap.Strings("errors", c.Errors.Errors()),
			)
		}
	}
}
