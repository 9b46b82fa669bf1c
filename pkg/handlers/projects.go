package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// UserMiddleware wraps a handler with a connection bound to the authenticated user.
type UserMiddleware func(http.HandlerFunc) http.HandlerFunc

// ProjectResponse wraps a single project.
type ProjectResponse struct {
	Project *models.Project `json:"project"`
}

// ProjectsResponse wraps a project list.
type ProjectsResponse struct {
	Projects []*models.Project `json:"projects"`
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	FunnelSteps []string `json:"funnel_steps"`
}

// UpdateProjectRequest is the body of PATCH /api/projects/{pid}. Omitted fields are unchanged.
type UpdateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	FunnelSteps []string `json:"funnel_steps"`
}

// ProjectsHandler handles project-related HTTP requests.
type ProjectsHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, userMiddleware UserMiddleware) {
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(userMiddleware(h.List)))
	mux.HandleFunc("POST /api/projects", authMiddleware.RequireAuth(userMiddleware(h.Create)))
	mux.HandleFunc("GET /api/projects/{pid}", authMiddleware.RequireAuth(userMiddleware(h.Get)))
	mux.HandleFunc("PATCH /api/projects/{pid}", authMiddleware.RequireAuth(userMiddleware(h.Update)))
	mux.HandleFunc("DELETE /api/projects/{pid}", authMiddleware.RequireAuth(userMiddleware(h.Delete)))
}

// List handles GET /api/projects
// Returns the caller's projects, newest first.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeJSON(w, h.logger, http.StatusOK, ProjectsResponse{Projects: projects})
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	project, err := h.projectService.Create(r.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		FunnelSteps: req.FunnelSteps,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to create project")
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, ProjectResponse{Project: project})
}

// Get handles GET /api/projects/{pid}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to get project",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ProjectResponse{Project: project})
}

// Update handles PATCH /api/projects/{pid}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	project, err := h.projectService.Update(r.Context(), projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		FunnelSteps: req.FunnelSteps,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to update project",
			zap.String("project_id", projectID.String()))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ProjectResponse{Project: project})
}

// Delete handles DELETE /api/projects/{pid}
// Deletes a project with its reports and insights.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), projectID); err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to delete project",
			zap.String("project_id", projectID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
