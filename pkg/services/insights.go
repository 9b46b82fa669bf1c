package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/llm"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/prompts"
	"github.com/onboardlens/onboardlens/pkg/repositories"
)

// Insight generation failures, distinguished so callers can report which stage failed.
var (
	ErrGenerateInsights = errors.New("failed to generate insights")
	ErrSaveInsights     = errors.New("failed to save insights")
)

// MaxListedInsights caps how many insights List returns.
const MaxListedInsights = 10

// GenerateInsightsResult is the parsed insights and the model text they came from.
type GenerateInsightsResult struct {
	Insights    []*models.Insight `json:"insights"`
	RawResponse string            `json:"rawResponse"`
}

// InsightService generates and lists AI insights.
type InsightService interface {
	// Generate asks the model about reportData and stores the parsed insights.
	// Returns apperrors.ErrNotConfigured when no model is configured.
	Generate(ctx context.Context, projectID uuid.UUID, reportID *uuid.UUID, reportData models.ReportData) (*GenerateInsightsResult, error)
	// List returns the newest MaxListedInsights insights of a project.
	List(ctx context.Context, projectID uuid.UUID) ([]*models.Insight, error)
}

type insightService struct {
	projects    repositories.ProjectRepository
	insights    repositories.InsightRepository
	client      llm.LLMClient
	temperature float64
	logger      *zap.Logger
}

// NewInsightService creates a new insight service. client may be nil, in
// which case Generate reports apperrors.ErrNotConfigured.
func NewInsightService(
	projects repositories.ProjectRepository,
	insights repositories.InsightRepository,
	client llm.LLMClient,
	temperature float64,
	logger *zap.Logger,
) InsightService {
	return &insightService{
		projects:    projects,
		insights:    insights,
		client:      client,
		temperature: temperature,
		logger:      logger.Named("insights"),
	}
}

func (s *insightService) Generate(
	ctx context.Context,
	projectID uuid.UUID,
	reportID *uuid.UUID,
	reportData models.ReportData,
) (*GenerateInsightsResult, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, apperrors.ErrNotConfigured
	}

	prompt := prompts.BuildFunnelInsightsPrompt(prompts.FunnelInsightsInput{
		ProjectName:     project.Name,
		Steps:           project.FunnelSteps,
		TotalUsers:      reportData.TotalUsers,
		CompletionRate:  reportData.CompletionRate,
		ConversionRates: reportData.ConversionRates,
		DropOffPoints:   reportData.DropOffPoints,
	})

	result, err := s.client.GenerateResponse(ctx, prompt, prompts.FunnelInsightsSystemMessage, s.temperature)
	if err != nil {
		llmErr := llm.ClassifyError(err)
		s.logger.Error("LLM request failed",
			zap.String("project_id", projectID.String()),
			zap.String("model", s.client.GetModel()),
			zap.String("error_type", string(llmErr.Type)),
			zap.Bool("retryable", llmErr.Retryable),
			zap.Error(llmErr))
		return nil, fmt.Errorf("%w: %w", ErrGenerateInsights, llmErr)
	}

	insights := ParseInsights(result.Content, projectID, reportID)
	if err := s.insights.CreateBatch(ctx, insights); err != nil {
		s.logger.Error("Failed to save insights",
			zap.String("project_id", projectID.String()),
			zap.Int("count", len(insights)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSaveInsights, err)
	}

	s.logger.Info("Insights generated",
		zap.String("project_id", projectID.String()),
		zap.Int("count", len(insights)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens))

	return &GenerateInsightsResult{Insights: insights, RawResponse: result.Content}, nil
}

func (s *insightService) List(ctx context.Context, projectID uuid.UUID) ([]*models.Insight, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.insights.ListByProject(ctx, projectID, MaxListedInsights)
}

var _ InsightService = (*insightService)(nil)
