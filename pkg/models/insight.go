package models

import (
	"time"

	"github.com/google/uuid"
)

// InsightType categorizes an AI-generated insight.
type InsightType string

const (
	InsightTypeOptimization   InsightType = "optimization"
	InsightTypePattern        InsightType = "pattern"
	InsightTypeRecommendation InsightType = "recommendation"
)

// IsValid reports whether t is one of the known insight types.
func (t InsightType) IsValid() bool {
	switch t {
	case InsightTypeOptimization, InsightTypePattern, InsightTypeRecommendation:
		return true
	}
	return false
}

// Insight is a best-effort, model-generated suggestion tied to a project.
// It has no consistency constraint with the report it was derived from.
type Insight struct {
	ID              uuid.UUID   `json:"id"`
	ProjectID       uuid.UUID   `json:"project_id"`
	FunnelReportID  *uuid.UUID  `json:"funnel_report_id,omitempty"`
	OwnerID         uuid.UUID   `json:"user_id"`
	InsightType     InsightType `json:"insight_type"`
	Content         string      `json:"content"`
	ConfidenceScore *float64    `json:"confidence_score,omitempty"`
	GeneratedAt     time.Time   `json:"generated_at"`
}
