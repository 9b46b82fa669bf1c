package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/funnel"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/repositories"
)

// ErrNoReports is returned when an owned project has no reports yet.
// It matches apperrors.ErrNotFound.
var ErrNoReports = fmt.Errorf("%w: project has no reports", apperrors.ErrNotFound)

// ReportService creates and reads funnel reports.
type ReportService interface {
	// Ingest reduces raw step completions to a report shaped by the project's steps.
	Ingest(ctx context.Context, projectID uuid.UUID, data models.FunnelData) (*models.FunnelReport, error)
	// Create stores a precomputed report payload as submitted.
	Create(ctx context.Context, projectID uuid.UUID, data models.ReportData) (*models.FunnelReport, error)
	// List returns reports newest first, optionally for a single project.
	List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error)
	// Latest returns ErrNoReports for an owned project without reports.
	Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error)
	// GenerateMock stores a report computed from simulated completions.
	GenerateMock(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error)
	// Analysis breaks down the project's latest report per step.
	Analysis(ctx context.Context, projectID uuid.UUID) (*models.FunnelAnalysis, error)
}

type reportService struct {
	projects repositories.ProjectRepository
	reports  repositories.ReportRepository
	mock     *funnel.MockGenerator
	now      func() time.Time
	logger   *zap.Logger
}

// NewReportService creates a new report service. A nil generator uses a
// randomly seeded one.
func NewReportService(
	projects repositories.ProjectRepository,
	reports repositories.ReportRepository,
	mock *funnel.MockGenerator,
	logger *zap.Logger,
) ReportService {
	if mock == nil {
		mock = funnel.NewMockGenerator(nil)
	}
	return &reportService{
		projects: projects,
		reports:  reports,
		mock:     mock,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.Named("reports"),
	}
}

func (s *reportService) Ingest(ctx context.Context, projectID uuid.UUID, data models.FunnelData) (*models.FunnelReport, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now()
	reportData := funnel.Calculate(data.StepCompletions, data.TotalUsers, project.FunnelSteps, generatedAt)

	report, err := s.store(ctx, projectID, reportData, generatedAt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Funnel data ingested",
		zap.String("project_id", projectID.String()),
		zap.String("report_id", report.ID.String()),
		zap.Int64("total_users", data.TotalUsers),
		zap.String("source_timestamp", data.Timestamp))
	return report, nil
}

func (s *reportService) Create(ctx context.Context, projectID uuid.UUID, data models.ReportData) (*models.FunnelReport, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store(ctx, projectID, data, s.now())
}

func (s *reportService) List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error) {
	return s.reports.List(ctx, projectID)
}

func (s *reportService) Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	report, err := s.reports.Latest(ctx, projectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrNoReports
	}
	return report, err
}

func (s *reportService) GenerateMock(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now()
	return s.store(ctx, projectID, s.mock.Generate(project.FunnelSteps, generatedAt), generatedAt)
}

func (s *reportService) Analysis(ctx context.Context, projectID uuid.UUID) (*models.FunnelAnalysis, error) {
	report, err := s.Latest(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return funnel.Analyze(report), nil
}

func (s *reportService) store(ctx context.Context, projectID uuid.UUID, data models.ReportData, generatedAt time.Time) (*models.FunnelReport, error) {
	report := &models.FunnelReport{
		ProjectID:   projectID,
		ReportData:  data,
		GeneratedAt: generatedAt,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return report, nil
}

var _ ReportService = (*reportService)(nil)
