// Package mcpauth provides MCP-specific authentication middleware.
// It wraps the core auth service with RFC 6750 Bearer token error responses.
package mcpauth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
)

// Middleware provides MCP-specific authentication middleware.
// Unlike the general auth middleware, this returns RFC 6750 WWW-Authenticate
// headers for OAuth 2.0 Bearer token authentication errors.
type Middleware struct {
	authService auth.AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware.
func NewMiddleware(authService auth.AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth validates the caller's JWT and stores its claims in the context.
// Returns RFC 6750 WWW-Authenticate headers on authentication failures.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingAuthorization):
				m.logger.Debug("MCP auth failed: no token", zap.String("path", r.URL.Path))
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "", "")
			case errors.Is(err, auth.ErrInvalidAuthFormat), errors.Is(err, auth.ErrAPIKeyNotSupported):
				m.logger.Debug("MCP auth failed: malformed credentials",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				m.writeWWWAuthenticate(w, http.StatusBadRequest, "invalid_request", "A Bearer access token is required")
			default:
				m.logger.Debug("MCP auth failed: invalid token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims, token)))
	})
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
// A request without credentials gets a bare challenge with no error code.
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	headerValue := `Bearer realm="onboardlens"`
	if errorCode != "" {
		headerValue += `, error="` + errorCode + `", error_description="` + description + `"`
	}
	w.Header().Set("WWW-Authenticate", headerValue)
	w.WriteHeader(status)
}
