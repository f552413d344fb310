package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"review-simulator/internal/shared/server/respond"
	"review-simulator/internal/shared/telemetry"
)

// Logging emits a structured log per request. Preflights and metric scrapes are skipped.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":       RequestIDFromContext(c),
			"method":           c.Request.Method,
			"path":             c.Request.URL.Path,
			"route":            c.FullPath(),
			"status":           c.Writer.Status(),
			"duration_ms":      float64(latency.Microseconds()) / 1000.0,
			"session_id":       c.GetString(respond.SessionIDKey),
			"phase_transition": c.GetString(respond.PhaseTransitionKey),
			"client_ip":        c.ClientIP(),
			"user_agent":       c.Request.UserAgent(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			telemetry.Warn("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
