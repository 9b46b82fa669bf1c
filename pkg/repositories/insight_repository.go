package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onboardlens/onboardlens/pkg/models"
)

// InsightRepository defines data access for AI insights.
type InsightRepository interface {
	// CreateBatch inserts all insights in one transaction; either all are saved or none.
	CreateBatch(ctx context.Context, insights []*models.Insight) error
	// ListByProject returns at most limit insights of a project, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Insight, error)
	Count(ctx context.Context) (int, error)
}

type insightRepository struct{}

// NewInsightRepository creates a new insight repository.
func NewInsightRepository() InsightRepository {
	return &insightRepository{}
}

func (r *insightRepository) CreateBatch(ctx context.Context, insights []*models.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO ai_insights (id, project_id, funnel_report_id, owner_id, insight_type, content, confidence_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING generated_at`

	batch := &pgx.Batch{}
	for _, insight := range insights {
		if insight.ID == uuid.Nil {
			insight.ID = uuid.New()
		}
		insight.OwnerID = scope.UserID
		batch.Queue(query,
			insight.ID,
			insight.ProjectID,
			insight.FunnelReportID,
			insight.OwnerID,
			string(insight.InsightType),
			insight.Content,
			insight.ConfidenceScore,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, insight := range insights {
		if err := results.QueryRow().Scan(&insight.GeneratedAt); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit insights: %w", err)
	}
	return nil
}

func (r *insightRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Insight, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, project_id, funnel_report_id, owner_id, insight_type, content, confidence_score, generated_at
		FROM ai_insights
		WHERE owner_id = $1 AND project_id = $2
		ORDER BY generated_at DESC
		LIMIT $3`

	rows, err := scope.Conn.Query(ctx, query, scope.UserID, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	insights := make([]*models.Insight, 0)
	for rows.Next() {
		var (
			insight     models.Insight
			insightType string
		)
		err := rows.Scan(
			&insight.ID,
			&insight.ProjectID,
			&insight.FunnelReportID,
			&insight.OwnerID,
			&insightType,
			&insight.Content,
			&insight.ConfidenceScore,
			&insight.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insight.InsightType = models.InsightType(insightType)
		insights = append(insights, &insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}
	return insights, nil
}

func (r *insightRepository) Count(ctx context.Context) (int, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err := scope.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM ai_insights WHERE owner_id = $1`, scope.UserID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}
	return count, nil
}

var _ InsightRepository = (*insightRepository)(nil)
