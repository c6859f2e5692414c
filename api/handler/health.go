package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/socialpulse/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// SessionReporter reports the render backend and its open sessions.
type SessionReporter interface {
	Name() string
	Active() int
}

// Health returns a handler for GET /api/health.
//
// Status degrades when more than maxSessions render sessions are open.
// maxSessions <= 0 disables the check.
func Health(r SessionReporter, startTime time.Time, maxSessions int) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := r.Active()

		status := "healthy"
		if maxSessions > 0 && active > maxSessions {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			Renderer:       r.Name(),
			ActiveSessions: active,
			Version:        Version,
		})
	}
}
