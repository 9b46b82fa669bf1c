package handlers

import (
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/events"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// EventsHandler streams a project's webhook events over a websocket.
type EventsHandler struct {
	projectService services.ProjectService
	withUser       services.UserContextFunc
	hub            *events.Hub
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewEventsHandler creates a new events handler. allowedOrigins limits which
// browser origins may connect; empty keeps the same-origin default.
func NewEventsHandler(
	projectService services.ProjectService,
	withUser services.UserContextFunc,
	hub *events.Hub,
	allowedOrigins []string,
	logger *zap.Logger,
) *EventsHandler {
	return &EventsHandler{
		projectService: projectService,
		withUser:       withUser,
		hub:            hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		logger: logger,
	}
}

// RegisterRoutes registers the events route. It binds a user connection only
// for the ownership check, so a long-lived stream does not hold one.
func (h *EventsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/projects/{pid}/events", authMiddleware.RequireAuth(h.Stream))
}

// Stream handles GET /api/projects/{pid}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if !h.ownsProject(w, r, userID, projectID) {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(projectID)
	defer sub.Close()

	h.logger.Debug("Event stream opened",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", userID.String()))

	_ = events.Stream(r.Context(), conn, sub, h.logger)
}

func (h *EventsHandler) ownsProject(w http.ResponseWriter, r *http.Request, userID, projectID uuid.UUID) bool {
	userCtx, cleanup, err := h.withUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to acquire user connection", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Database connection error")
		return false
	}
	defer cleanup()

	if _, err := h.projectService.Get(userCtx, projectID); err != nil {
		writeServiceError(w, h.logger, err, msgProjectNotFound, "Failed to get project")
		return false
	}
	return true
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}
