package handler

import (
	"context"
	"net/http"
	"time"
)

// Check probes one backing dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler reports gateway liveness and the state of its backends.
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler creates a HealthHandler over the given dependency checks.
func NewHealthHandler(checks []Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthCheck probes every backend with a short deadline. Any failing
// component degrades the overall status to 503.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			components[c.Name] = err.Error()
			status = "degraded"
		} else {
			components[c.Name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	})
}
