package database

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
)

// WithUserContext creates middleware that sets up a user-bound DB connection.
// It runs AFTER auth middleware and uses the subject from JWT claims.
// The connection is automatically cleaned up after the handler returns.
func WithUserContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.RequireUserUUIDFromContext(r.Context())
			if err != nil {
				logger.Warn("Missing or invalid user ID in claims", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			scope, err := db.WithUser(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to acquire user connection",
					zap.String("user_id", userID.String()),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Database connection error")
				return
			}
			defer scope.Close()

			ctx := SetUserScope(r.Context(), scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
