package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrAPIKeyNotSupported   = errors.New("API key authentication not implemented")
	ErrMissingSubject       = errors.New("missing user ID in token")
)

// APIKeyHeader is accepted by external integrations but not yet supported.
const APIKeyHeader = "X-API-Key"

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling
// and authentication logic, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request.
	// It checks for the token in:
	//   1. Authorization header with "Bearer" scheme (API clients)
	//   2. Cookie (browser clients and websocket upgrades)
	// A request carrying only an API key yields ErrAPIKeyNotSupported.
	// Returns the validated claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

// authService implements AuthService.
type authService struct {
	validator  TokenValidator
	cookieName string
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given token validator and logger.
func NewAuthService(validator TokenValidator, cookieName string, logger *zap.Logger) AuthService {
	return &authService{
		validator:  validator,
		cookieName: cookieName,
		logger:     logger,
	}
}

// ValidateRequest extracts and validates a JWT from the request.
func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	tokenString, tokenSource, err := s.extractToken(r)
	if err != nil {
		return nil, "", err
	}

	claims, err := s.validator.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	if claims.Subject == "" {
		return nil, "", ErrMissingSubject
	}

	return claims, tokenString, nil
}

func (s *authService) extractToken(r *http.Request) (string, string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return "", "", ErrInvalidAuthFormat
		}
		return parts[1], "header", nil
	}

	if r.Header.Get(APIKeyHeader) != "" {
		return "", "", ErrAPIKeyNotSupported
	}

	if s.cookieName != "" {
		if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, "cookie", nil
		}
	}

	s.logger.Debug("No JWT found in request",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))
	return "", "", ErrMissingAuthorization
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
