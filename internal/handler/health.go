package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles liveness and readiness checks.
type HealthHandler struct {
	version string
	dbPing  func() error
}

// NewHealthHandler creates a HealthHandler. dbPing may be nil, in which case
// readiness degrades to liveness.
func NewHealthHandler(version string, dbPing func() error) *HealthHandler {
	return &HealthHandler{version: version, dbPing: dbPing}
}

// HealthCheck returns service liveness.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports whether the service can reach its database.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.dbPing != nil {
		if pingErr := h.dbPing(); pingErr != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  pingErr.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
