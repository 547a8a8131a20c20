package http

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"

	"leetlens/internal/config"
	"leetlens/pkg/contracts"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	cfg     *config.Config
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg, started: time.Now()}
}

// healthResponse is the probe payload.
type healthResponse struct {
	Status   string                `json:"status"`
	Version  contracts.VersionInfo `json:"version"`
	Uptime   string                `json:"uptime"`
	DataRoot string                `json:"data_root"`
}

// Healthz handles GET /healthz. The probe degrades to 503 when the data root
// has gone missing, since every endpoint depends on it.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Version:  contracts.GetVersionInfo(),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		DataRoot: h.cfg.Data.Root,
	}
	if _, err := os.Stat(h.cfg.Data.Root); err != nil {
		resp.Status = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}
