package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context keys set by the middleware in this package.
const (
	RequestIDKey    = "request_id"
	ClientIDKey     = "client_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestID propagates the caller's X-Request-ID or assigns a new UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"request_id":  c.GetString(RequestIDKey),
		}
		if clientID := c.GetString(ClientIDKey); clientID != "" {
			fields["client_id"] = clientID
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case len(c.Errors) > 0 && status >= 500:
			entry.WithError(c.Errors.Last().Err).Error("Request failed")
		case len(c.Errors) > 0:
			entry.WithError(c.Errors.Last().Err).Warn("Request rejected")
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}
