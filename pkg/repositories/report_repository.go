package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/models"
)

// ReportRepository defines data access for funnel reports.
// Reports are immutable once created.
type ReportRepository interface {
	Create(ctx context.Context, report *models.FunnelReport) error
	// List returns reports newest first, optionally limited to one project.
	List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error)
	// Latest returns the newest report of a project or apperrors.ErrNotFound.
	Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error)
	// ListRecent returns at most limit reports across all projects, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.FunnelReport, error)
	Count(ctx context.Context) (int, error)
}

type reportRepository struct{}

// NewReportRepository creates a new report repository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

const reportColumns = `id, project_id, owner_id, report_data, generated_at`

func (r *reportRepository) Create(ctx context.Context, report *models.FunnelReport) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.OwnerID = scope.UserID
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	data, err := json.Marshal(report.ReportData)
	if err != nil {
		return fmt.Errorf("failed to marshal report data: %w", err)
	}

	query := `
		INSERT INTO funnel_reports (id, project_id, owner_id, report_data, generated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := scope.Conn.Exec(ctx, query, report.ID, report.ProjectID, report.OwnerID, data, report.GeneratedAt); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

func (r *reportRepository) List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + reportColumns + ` FROM funnel_reports WHERE owner_id = $1`
	args := []any{scope.UserID}
	if projectID != nil {
		query += ` AND project_id = $2`
		args = append(args, *projectID)
	}
	query += ` ORDER BY generated_at DESC`

	return r.query(ctx, scope.Conn, query, args...)
}

func (r *reportRepository) Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + reportColumns + ` FROM funnel_reports
		WHERE owner_id = $1 AND project_id = $2
		ORDER BY generated_at DESC
		LIMIT 1`

	report, err := scanReport(scope.Conn.QueryRow(ctx, query, scope.UserID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}
	return report, nil
}

func (r *reportRepository) ListRecent(ctx context.Context, limit int) ([]*models.FunnelReport, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + reportColumns + ` FROM funnel_reports
		WHERE owner_id = $1
		ORDER BY generated_at DESC
		LIMIT $2`

	return r.query(ctx, scope.Conn, query, scope.UserID, limit)
}

func (r *reportRepository) Count(ctx context.Context) (int, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err := scope.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM funnel_reports WHERE owner_id = $1`, scope.UserID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *reportRepository) query(ctx context.Context, conn querier, query string, args ...any) ([]*models.FunnelReport, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.FunnelReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

func scanReport(row pgx.Row) (*models.FunnelReport, error) {
	var (
		report models.FunnelReport
		data   []byte
	)
	if err := row.Scan(&report.ID, &report.ProjectID, &report.OwnerID, &data, &report.GeneratedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &report.ReportData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report data: %w", err)
	}
	return &report, nil
}

var _ ReportRepository = (*reportRepository)(nil)
