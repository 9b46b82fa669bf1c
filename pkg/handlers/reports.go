package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/jsonutil"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// ReportResponse wraps a single report.
type ReportResponse struct {
	Report *models.FunnelReport `json:"report"`
}

// ReportsResponse wraps a report list.
type ReportsResponse struct {
	Reports []*models.FunnelReport `json:"reports"`
}

// CreateReportRequest is the body of POST /api/reports.
type CreateReportRequest struct {
	ProjectID  string          `json:"project_id"`
	ReportData json.RawMessage `json:"report_data"`
}

// ReportsHandler serves funnel reports and their analysis.
type ReportsHandler struct {
	reportService services.ReportService
	logger        *zap.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reportService services.ReportService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers the reports handler's routes on the given mux.
func (h *ReportsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, userMiddleware UserMiddleware) {
	mux.HandleFunc("GET /api/reports", authMiddleware.RequireAuth(userMiddleware(h.List)))
	mux.HandleFunc("POST /api/reports", authMiddleware.RequireAuth(userMiddleware(h.Create)))
	mux.HandleFunc("GET /api/projects/{pid}/reports/latest", authMiddleware.RequireAuth(userMiddleware(h.Latest)))
	mux.HandleFunc("POST /api/projects/{pid}/reports/generate", authMiddleware.RequireAuth(userMiddleware(h.Generate)))
	mux.HandleFunc("GET /api/projects/{pid}/analysis", authMiddleware.RequireAuth(userMiddleware(h.Analysis)))
}

// List handles GET /api/reports?project_id=
// Returns the caller's reports newest first, optionally for one project.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectIDQuery(w, r, h.logger)
	if !ok {
		return
	}

	reports, err := h.reportService.List(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to list reports")
		return
	}
	if reports == nil {
		reports = []*models.FunnelReport{}
	}
	writeJSON(w, h.logger, http.StatusOK, ReportsResponse{Reports: reports})
}

// Create handles POST /api/reports
// Stores a precomputed report payload as sent.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
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

	var data models.ReportData
	if err := json.Unmarshal(req.ReportData, &data); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid report_data")
		return
	}

	report, err := h.reportService.Create(r.Context(), projectID, data)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to create report",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, ReportResponse{Report: report})
}

// Latest handles GET /api/projects/{pid}/reports/latest
func (h *ReportsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.reportService.Latest(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to get report",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ReportResponse{Report: report})
}

// Generate handles POST /api/projects/{pid}/reports/generate
// Stores a report computed from simulated completions.
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.reportService.GenerateMock(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to generate report",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, ReportResponse{Report: report})
}

// Analysis handles GET /api/projects/{pid}/analysis
// Breaks the latest report down per step.
func (h *ReportsHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	analysis, err := h.reportService.Analysis(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to analyze report",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, analysis)
}
