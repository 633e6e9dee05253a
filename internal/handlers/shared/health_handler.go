package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"floreria/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger is a backing store the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	version      string
	dependencies map[string]Pinger
}

// NewHealthHandler probes each named dependency; nil entries are skipped.
func NewHealthHandler(version string, dependencies map[string]Pinger) *HealthHandler {
	deps := make(map[string]Pinger, len(dependencies))
	for name, p := range dependencies {
		if p != nil {
			deps[name] = p
		}
	}
	return &HealthHandler{version: version, dependencies: deps}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.dependencies[name].Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "ok"
	}

	body := gin.H{
		"status":    status,
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now(),
	}
	if status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	utils.SuccessResponse(c, "Service is healthy", body)
}
