package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/services"
)

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	health services.HealthService
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(health services.HealthService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{health: health, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Health)
}

// Health handles GET /api/health requests.
// Reports database connectivity; 500 when the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.health.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusInternalServerError
	}
	writeJSON(w, h.logger, code, status)
}
