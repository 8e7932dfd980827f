// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DatabaseChecker is implemented by storage backends that can be probed.
type DatabaseChecker interface {
	Check(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      DatabaseChecker
	driver  string
	version string
	stats   func() any
}

// NewHealthHandler creates a health handler. db may be nil for the memory store.
func NewHealthHandler(driver, version string, db DatabaseChecker, stats func() any) *HealthHandler {
	return &HealthHandler{db: db, driver: driver, version: version, stats: stats}
}

// Live handles liveness probe.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the store answers.
// GET /health and /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": map[string]string{"database": "unhealthy: " + err.Error()},
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{"database": "healthy"},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "stockledger",
		"version": h.version,
		"storage": h.driver,
	}
	if h.stats != nil {
		info["database"] = h.stats()
	}
	c.JSON(http.StatusOK, info)
}
