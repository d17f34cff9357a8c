package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	storage Pinger
	version string
	started time.Time
}

// NewHealthHandlers creates health handlers. cache and storage may be nil
// when those backends are not configured.
func NewHealthHandlers(db, cache, storage Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

func (h *HealthHandlers) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/health/ready", h.ReadinessCheck)
	e.GET("/health/live", h.LivenessCheck)
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Goroutines int               `json:"goroutines"`
}

// HealthCheck reports every backend. The database is critical, the cache and
// report storage only degrade the service.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Services:   make(map[string]string),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}

	checks := []struct {
		name     string
		pinger   Pinger
		critical bool
	}{
		{"database", h.db, true},
		{"redis", h.cache, false},
		{"storage", h.storage, false},
	}
	for _, check := range checks {
		if check.pinger == nil {
			health.Services[check.name] = "disabled"
			continue
		}
		if err := check.pinger.Ping(ctx); err != nil {
			health.Services[check.name] = "unhealthy"
			if check.critical {
				health.Status = "unhealthy"
			} else if health.Status == "healthy" {
				health.Status = "degraded"
			}
			continue
		}
		health.Services[check.name] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Database unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
