package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/optimusx/nl2sql/internal/models"
	"golang.org/x/sync/singleflight"
)

// Version is reported by /health; set at build time through the cli package
var Version = "dev"

// Pinger is implemented by services that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health. Concurrent probes share one database ping.
type HealthHandler struct {
	db            Pinger
	llmConfigured bool
	timeout       time.Duration
	group         singleflight.Group
}

func NewHealthHandler(db Pinger, llmConfigured bool) *HealthHandler {
	return &HealthHandler{db: db, llmConfigured: llmConfigured, timeout: 5 * time.Second}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	v, _, _ := h.group.Do("health", func() (any, error) {
		// detached so one client hanging up does not fail the shared probe
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
		defer cancel()
		return h.check(ctx), nil
	})
	resp := v.(models.HealthResponse)

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	models.WriteJSON(w, code, resp)
}

func (h *HealthHandler) check(ctx context.Context) models.HealthResponse {
	checks := map[string]string{"server": "ok"}
	status := "healthy"

	switch {
	case h.db == nil:
		checks["database"] = "disabled"
	default:
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "unavailable: " + err.Error()
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}

	if h.llmConfigured {
		checks["llm"] = "ok"
	} else {
		checks["llm"] = "missing API key"
		status = "degraded"
	}

	return models.HealthResponse{Status: status, Version: Version, Checks: checks}
}
