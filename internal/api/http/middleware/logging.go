package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wingit-app/wingit-server/internal/logger"
)

// Logging logs every HTTP request with a per-request ID.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, path, duration and status for each request.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()
	requestID := uuid.NewString()

	l.logger.Info("HTTP request started",
		"request_id", requestID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"event_type", c.Query("event_type"))

	c.Next()

	duration := time.Since(start)

	l.logger.Info("HTTP request completed",
		"request_id", requestID,
		"method", c.Request.Method,
		"duration_ms", duration.Milliseconds(),
		"status", c.Writer.Status())
}
