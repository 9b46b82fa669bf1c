package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/jsonutil"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// GenerateInsightsRequest is the body of POST /api/insights/generate.
// ReportID optionally links the stored insights to a report.
type GenerateInsightsRequest struct {
	ProjectID  string          `json:"projectId"`
	ReportID   string          `json:"reportId,omitempty"`
	ReportData json.RawMessage `json:"reportData"`
}

// InsightsResponse wraps an insight list.
type InsightsResponse struct {
	Insights []*models.Insight `json:"insights"`
}

// InsightsHandler generates and lists AI insights.
type InsightsHandler struct {
	insightService services.InsightService
	logger         *zap.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(insightService services.InsightService, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		insightService: insightService,
		logger:         logger,
	}
}

// RegisterRoutes registers the insights handler's routes on the given mux.
func (h *InsightsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, userMiddleware UserMiddleware) {
	mux.HandleFunc("POST /api/insights/generate", authMiddleware.RequireAuth(userMiddleware(h.Generate)))
	mux.HandleFunc("GET /api/projects/{pid}/insights", authMiddleware.RequireAuth(userMiddleware(h.List)))
}

// Generate handles POST /api/insights/generate
// Asks the language model about a report and stores the parsed insights.
func (h *InsightsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateInsightsRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.ProjectID == "" || jsonutil.IsNull(req.ReportData) {
		writeError(w, h.logger, http.StatusBadRequest, msgMissingRequiredData)
		return
	}

	projectID, ok := parseUUID(w, req.ProjectID, "Invalid project ID", h.logger)
	if !ok {
		return
	}

	var reportID *uuid.UUID
	if req.ReportID != "" {
		id, ok := parseUUID(w, req.ReportID, "Invalid report ID", h.logger)
		if !ok {
			return
		}
		reportID = &id
	}

	var data models.ReportData
	if err := json.Unmarshal(req.ReportData, &data); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid reportData")
		return
	}

	result, err := h.insightService.Generate(r.Context(), projectID, reportID, data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSaveInsights):
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save insights")
		case errors.Is(err, services.ErrGenerateInsights):
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to generate insights")
		default:
			writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to generate insights",
				zap.String("project_id", projectID.String()))
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

// List handles GET /api/projects/{pid}/insights
// Returns the project's newest insights.
func (h *InsightsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	insights, err := h.insightService.List(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to list insights",
			zap.String("project_id", projectID.String()))
		return
	}
	if insights == nil {
		insights = []*models.Insight{}
	}
	writeJSON(w, h.logger, http.StatusOK, InsightsResponse{Insights: insights})
}
