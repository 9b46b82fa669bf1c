package models

import "github.com/google/uuid"

// DashboardStats summarizes a user's workspace.
type DashboardStats struct {
	TotalProjects     int     `json:"total_projects"`
	RecentReports     int     `json:"recent_reports"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	AIInsights        int     `json:"ai_insights"`
}

// DropOffSeverity buckets a step's drop-off rate.
type DropOffSeverity string

const (
	SeverityLow    DropOffSeverity = "low"
	SeverityMedium DropOffSeverity = "medium"
	SeverityHigh   DropOffSeverity = "high"
)

// StepAnalysis describes one funnel step of a report.
type StepAnalysis struct {
	Step           string          `json:"step"`
	StepNumber     int             `json:"step_number"`
	ConversionRate float64         `json:"conversion_rate"`
	DropOffRate    float64         `json:"drop_off_rate"`
	UsersLost      int64           `json:"users_lost"`
	Severity       DropOffSeverity `json:"severity"`
}

// AnalysisSummary aggregates a report's drop-offs.
// BiggestDropOffStep is a 0-based index into the steps, -1 when there are none.
type AnalysisSummary struct {
	BiggestDropOff     float64 `json:"biggest_drop_off"`
	BiggestDropOffStep int     `json:"biggest_drop_off_step"`
	TotalDropOff       float64 `json:"total_drop_off"`
	CompletedUsers     int64   `json:"completed_users"`
}

// FunnelAnalysis is the per-step breakdown of a project's latest report.
type FunnelAnalysis struct {
	ProjectID uuid.UUID       `json:"project_id"`
	ReportID  uuid.UUID       `json:"report_id"`
	Steps     []StepAnalysis  `json:"steps"`
	Summary   AnalysisSummary `json:"summary"`
}
