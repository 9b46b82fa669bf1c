package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/logging"
)

// DatabaseChecker verifies the store is reachable.
type DatabaseChecker interface {
	Check(ctx context.Context) error
}

// HealthStatus is the service health report. Error is set only when unhealthy.
type HealthStatus struct {
	Status    string     `json:"status"`
	Database  string     `json:"database"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Version   string     `json:"version,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Healthy reports whether the status is "healthy".
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// HealthService checks service dependencies.
type HealthService interface {
	Check(ctx context.Context) *HealthStatus
}

type healthService struct {
	db      DatabaseChecker
	version string
	now     func() time.Time
	logger  *zap.Logger
}

// NewHealthService creates a new health service reporting version.
func NewHealthService(db DatabaseChecker, version string, logger *zap.Logger) HealthService {
	return &healthService{
		db:      db,
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.Named("health"),
	}
}

func (s *healthService) Check(ctx context.Context) *HealthStatus {
	if err := s.db.Check(ctx); err != nil {
		s.logger.Warn("Database health check failed", zap.String("error", logging.SanitizeError(err)))
		return &HealthStatus{
			Status:   "unhealthy",
			Database: "error",
			Error:    logging.SanitizeError(err),
		}
	}

	now := s.now()
	return &HealthStatus{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: &now,
		Version:   s.version,
	}
}

var _ HealthService = (*healthService)(nil)
