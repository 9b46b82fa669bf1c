package handlers

import (
	"encoding/json"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/jsonutil"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// Required keys of funnel_data, checked in this order.
const (
	fieldStepCompletions = "step_completions"
	fieldTotalUsers      = "total_users"
	fieldTimestamp       = "timestamp"
)

// IngestRequest is the body of POST /api/data/ingest. funnel_data is kept
// raw so key presence can be checked and loosely typed numbers accepted.
type IngestRequest struct {
	ProjectID  string                     `json:"project_id"`
	FunnelData map[string]json.RawMessage `json:"funnel_data"`
}

// IngestResponse acknowledges an ingested batch.
type IngestResponse struct {
	Message  string `json:"message"`
	ReportID string `json:"report_id"`
}

// IngestHandler accepts raw per-step completion counts from integrations.
type IngestHandler struct {
	reportService services.ReportService
	logger        *zap.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(reportService services.ReportService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers the ingest route. Requests carrying only an
// X-API-Key are answered 501 by the auth middleware.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, userMiddleware UserMiddleware) {
	mux.HandleFunc("POST /api/data/ingest", authMiddleware.RequireAuth(userMiddleware(h.Ingest)))
}

// Ingest handles POST /api/data/ingest
// Reduces the completions to a report shaped by the project's funnel steps.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.ProjectID == "" || req.FunnelData == nil {
		writeError(w, h.logger, http.StatusBadRequest, msgMissingRequiredData)
		return
	}

	for _, field := range []string{fieldStepCompletions, fieldTotalUsers, fieldTimestamp} {
		if _, ok := req.FunnelData[field]; !ok {
			writeError(w, h.logger, http.StatusBadRequest, "Missing required field: "+field)
			return
		}
	}

	data, errField := parseFunnelData(req.FunnelData)
	if errField != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid field: "+errField)
		return
	}

	projectID, ok := parseUUID(w, req.ProjectID, "Invalid project ID", h.logger)
	if !ok {
		return
	}

	report, err := h.reportService.Ingest(r.Context(), projectID, data)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to ingest data",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, IngestResponse{
		Message:  "Data ingested successfully",
		ReportID: report.ID.String(),
	})
}

// parseFunnelData converts the raw fields. Counts must be non-negative whole
// numbers. On failure it returns the name of the offending field.
func parseFunnelData(raw map[string]json.RawMessage) (models.FunnelData, string) {
	var data models.FunnelData

	completions, err := jsonutil.FlexibleInt64Slice(raw[fieldStepCompletions])
	if err != nil || slices.ContainsFunc(completions, func(n int64) bool { return n < 0 }) {
		return data, fieldStepCompletions
	}
	totalUsers, err := jsonutil.FlexibleInt64(raw[fieldTotalUsers])
	if err != nil || totalUsers < 0 {
		return data, fieldTotalUsers
	}

	data.StepCompletions = completions
	data.TotalUsers = totalUsers
	data.Timestamp = jsonutil.FlexibleStringValue(raw[fieldTimestamp])
	return data, ""
}
