package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// DashboardHandler serves the workspace summary.
type DashboardHandler struct {
	dashboardService services.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboardService services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers the dashboard route. It runs without the user
// middleware: the service binds one connection per parallel read, and a
// request-held connection on top of those can starve the pool.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboard/stats", authMiddleware.RequireAuth(h.Stats))
}

// Stats handles GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to load dashboard stats")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stats)
}
