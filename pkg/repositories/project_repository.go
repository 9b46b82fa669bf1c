package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/models"
)

// ProjectRepository defines the interface for project data access.
// Every method is limited to rows owned by the scope's user.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

const projectColumns = `id, owner_id, name, description, funnel_steps, created_at, updated_at`

// Create inserts a new project owned by the scope's user.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	project.OwnerID = scope.UserID

	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	query := `
		INSERT INTO projects (id, owner_id, name, description, funnel_steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = scope.Conn.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Name,
		project.Description,
		project.FunnelSteps,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID. Projects of other users are reported as not found.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_id = $2`

	project, err := scanProject(scope.Conn.QueryRow(ctx, query, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// List returns the user's projects, newest first.
func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, scope.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// Update replaces a project's name, description and funnel steps.
func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	project.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE projects
		SET name = $3, description = $4, funnel_steps = $5, updated_at = $6
		WHERE id = $1 AND owner_id = $2`

	result, err := scope.Conn.Exec(ctx, query,
		project.ID, scope.UserID, project.Name, project.Description, project.FunnelSteps, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a project by ID.
// Reports and insights are deleted via CASCADE.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, id, scope.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Count returns the number of projects the user owns.
func (r *projectRepository) Count(ctx context.Context) (int, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err := scope.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE owner_id = $1`, scope.UserID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&p.FunnelSteps,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure projectRepository implements ProjectRepository at compile time.
var _ ProjectRepository = (*projectRepository)(nil)
