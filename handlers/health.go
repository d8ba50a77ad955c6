package handlers

import (
	"net/http"

	"medbook/utils"

	"github.com/gin-gonic/gin"
)

// HealthReporter is satisfied by *utils.HealthMonitor.
type HealthReporter interface {
	Status() utils.HealthStatus
}

// HealthHandler handles GET /health. It answers 503 while a dependency is down.
func HealthHandler(reporter HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reporter == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := reporter.Status()
		if !status.Healthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
	}
}
