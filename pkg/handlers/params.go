package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ParseProjectID extracts and validates the project ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: pid
func ParseProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r.PathValue("pid"), "Invalid project ID", logger)
}

// ParseProjectIDQuery reads the optional ?project_id= filter.
// Returns nil when absent; writes a 400 and returns false when malformed.
func ParseProjectIDQuery(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("project_id")
	if raw == "" {
		return nil, true
	}
	id, ok := parseUUID(w, raw, "Invalid project ID", logger)
	if !ok {
		return nil, false
	}
	return &id, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, value, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, errorMessage)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into v. On failure it writes a 400
// "Invalid request body" and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger *zap.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Debug("Invalid request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
