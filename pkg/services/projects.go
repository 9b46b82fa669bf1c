package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/audit"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/repositories"
)

// ErrSuspiciousInput is returned when a submitted field looks like an injection payload.
var ErrSuspiciousInput = errors.New("input contains disallowed content")

// CreateProjectInput holds the fields of a new project.
type CreateProjectInput struct {
	Name        string
	Description *string
	FunnelSteps []string
}

// UpdateProjectInput holds a partial update. Nil fields are left unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	FunnelSteps []string
}

// ProjectService defines the interface for project operations.
// All operations act on the caller's own projects.
type ProjectService interface {
	Create(ctx context.Context, input CreateProjectInput) (*models.Project, error)
	// Get returns apperrors.ErrNotFound for missing projects and projects of other users.
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	repo    repositories.ProjectRepository
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(repo repositories.ProjectRepository, auditor *audit.SecurityAuditor, logger *zap.Logger) ProjectService {
	return &projectService{
		repo:    repo,
		auditor: auditor,
		logger:  logger.Named("projects"),
	}
}

func (s *projectService) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	project := &models.Project{
		Name:        strings.TrimSpace(input.Name),
		Description: normalizeDescription(input.Description),
	}
	steps, err := normalizeSteps(input.FunnelSteps)
	if err != nil {
		return nil, err
	}
	project.FunnelSteps = steps

	if project.Name == "" {
		return nil, fmt.Errorf("%w: project name is required", apperrors.ErrInvalidInput)
	}
	if err := s.screen(ctx, uuid.Nil, project); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.Int("steps", project.StepCount()))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.repo.List(ctx)
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
		if project.Name == "" {
			return nil, fmt.Errorf("%w: project name is required", apperrors.ErrInvalidInput)
		}
	}
	if input.Description != nil {
		project.Description = normalizeDescription(input.Description)
	}
	if input.FunnelSteps != nil {
		steps, err := normalizeSteps(input.FunnelSteps)
		if err != nil {
			return nil, err
		}
		project.FunnelSteps = steps
	}

	if err := s.screen(ctx, project.ID, project); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	return nil
}

// screen rejects names, descriptions and step names that libinjection flags.
func (s *projectService) screen(ctx context.Context, projectID uuid.UUID, project *models.Project) error {
	fields := map[string]string{"name": project.Name}
	if project.Description != nil {
		fields["description"] = *project.Description
	}
	for i, step := range project.FunnelSteps {
		fields["funnel_steps["+strconv.Itoa(i)+"]"] = step
	}

	findings := audit.CheckFields(fields)
	if len(findings) == 0 {
		return nil
	}

	clientIP := audit.ClientIPFromContext(ctx)
	for _, f := range findings {
		s.auditor.LogInjectionAttempt(ctx, projectID, "", f.Details("project"), clientIP)
	}
	return fmt.Errorf("%w: %s", ErrSuspiciousInput, findings[0].FieldName)
}

// normalizeSteps trims step names and requires a non-empty list of unique, non-blank names.
func normalizeSteps(steps []string) ([]string, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: at least one funnel step is required", apperrors.ErrInvalidInput)
	}

	out := make([]string, 0, len(steps))
	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		step = strings.TrimSpace(step)
		if step == "" {
			return nil, fmt.Errorf("%w: funnel step %d is empty", apperrors.ErrInvalidInput, i+1)
		}
		if _, dup := seen[step]; dup {
			return nil, fmt.Errorf("%w: duplicate funnel step %q", apperrors.ErrInvalidInput, step)
		}
		seen[step] = struct{}{}
		out = append(out, step)
	}
	return out, nil
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Ensure projectService implements ProjectService at compile time.
var _ ProjectService = (*projectService)(nil)
