package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadinessCheck probes a single dependency.
type ReadinessCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	logger  *zap.Logger
	checks  []ReadinessCheck
	timeout time.Duration
}

// HealthOption customizes the health handler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck adds a named dependency probe to the readiness endpoint.
func WithReadinessCheck(name string, probe func(ctx context.Context) error) HealthOption {
	return func(h *HealthHandler) {
		if name != "" && probe != nil {
			h.checks = append(h.checks, ReadinessCheck{Name: name, Probe: probe})
		}
	}
}

// WithCheckTimeout bounds how long each readiness probe may take.
func WithCheckTimeout(timeout time.Duration) HealthOption {
	return func(h *HealthHandler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

func NewHealthHandler(logger *zap.Logger, opts ...HealthOption) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HealthHandler{
		logger:  logger,
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status reports process liveness.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness probes every registered dependency and reports per-check results.
func (h *HealthHandler) Readiness(c *gin.Context) {
	results := make(map[string]string, len(h.checks))
	ready := true

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := check.Probe(ctx)
		cancel()

		if err != nil {
			ready = false
			results[check.Name] = "unavailable"
			h.logger.Warn("readiness check failed",
				zap.String("check", check.Name),
				zap.Error(err))
			continue
		}
		results[check.Name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	c.JSON(status, gin.H{"status": state, "checks": results})
}
