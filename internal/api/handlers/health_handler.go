package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hirewire/warden/internal/version"
)

// HealthHandler responds with basic service metadata for uptime checks.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
	})
}
