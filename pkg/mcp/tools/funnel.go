package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/onboardlens/onboardlens/pkg/funnel"
	"github.com/onboardlens/onboardlens/pkg/models"
)

type calculateResult struct {
	Report   models.ReportData      `json:"report"`
	Analysis []models.StepAnalysis  `json:"analysis"`
	Summary  models.AnalysisSummary `json:"summary"`
}

// RegisterFunnelTools adds the stateless funnel calculator. now supplies the
// report timestamp when the caller does not pass generated_at.
func RegisterFunnelTools(s *server.MCPServer, now func() time.Time) {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	tool := mcp.NewTool(
		"calculate_funnel_metrics",
		mcp.WithDescription(
			"Computes conversion and drop-off percentages for an onboarding funnel from per-step completion counts. "+
				"Nothing is stored."),
		mcp.WithArray(
			"step_names",
			mcp.Required(),
			mcp.Description("Ordered funnel step names, e.g. ['Sign up', 'Verify email', 'First project']"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray(
			"step_completions",
			mcp.Required(),
			mcp.Description("Users who completed each step, in step order. Missing entries count as 0."),
		),
		mcp.WithNumber(
			"total_users",
			mcp.Required(),
			mcp.Description("Users who entered the funnel"),
		),
		mcp.WithString(
			"generated_at",
			mcp.Description("Optional RFC 3339 timestamp stamped on the report (default: now)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		steps := getStringSlice(req, "step_names")
		if len(steps) == 0 {
			return NewErrorResult("invalid_parameters", "step_names must contain at least one step"), nil
		}

		completions, ok, err := getInt64Slice(req, "step_completions")
		if !ok {
			return NewErrorResult("invalid_parameters", "step_completions is required"), nil
		}
		if err != nil {
			return NewErrorResultWithDetails("invalid_parameters", "step_completions must be whole numbers", err.Error()), nil
		}

		totalUsers, ok, err := getInt64(req, "total_users")
		if !ok {
			return NewErrorResult("invalid_parameters", "total_users is required"), nil
		}
		if err != nil || totalUsers < 0 {
			return NewErrorResult("invalid_parameters", "total_users must be a non-negative whole number"), nil
		}

		generatedAt := now()
		if raw := getOptionalString(req, "generated_at"); raw != "" {
			generatedAt, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				return NewErrorResult("invalid_parameters", "generated_at must be an RFC 3339 timestamp"), nil
			}
		}

		data := funnel.Calculate(completions, totalUsers, steps, generatedAt)
		analysis := funnel.Analyze(&models.FunnelReport{ReportData: data, GeneratedAt: generatedAt})

		return jsonResult(calculateResult{
			Report:   data,
			Analysis: analysis.Steps,
			Summary:  analysis.Summary,
		})
	})
}
