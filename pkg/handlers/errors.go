package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// Messages shared by several endpoints.
const (
	msgProjectNotFound     = "Project not found"
	msgMissingRequiredData = "Missing required data"
	msgInternalError       = "Internal server error"
	msgNoReports           = "No reports found for this project"
	msgNotConfigured       = "AI insights are not configured"
	msgDisallowedContent   = "Input contains disallowed content"
)

// writeServiceError maps a service error to a status code. notFound is the
// message for apperrors.ErrNotFound; failure is used for unexpected errors,
// which are also logged with fields.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, notFound, failure string, fields ...zap.Field) {
	switch {
	case errors.Is(err, services.ErrNoReports):
		writeError(w, logger, http.StatusNotFound, msgNoReports)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrSuspiciousInput):
		writeError(w, logger, http.StatusBadRequest, msgDisallowedContent)
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotConfigured):
		writeError(w, logger, http.StatusNotImplemented, msgNotConfigured)
	case errors.Is(err, apperrors.ErrUnauthorized):
		writeError(w, logger, http.StatusUnauthorized, "Unauthorized")
	default:
		logger.Error(failure, append(fields, zap.Error(err))...)
		writeError(w, logger, http.StatusInternalServerError, failure)
	}
}
