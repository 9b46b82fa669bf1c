package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/funnel"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// ProjectToolDeps contains the services the project tools read through.
// Tool handlers run inside the HTTP request, so the caller's user scope is
// already bound to ctx by the /mcp middleware chain.
type ProjectToolDeps struct {
	Projects services.ProjectService
	Reports  services.ReportService
	Logger   *zap.Logger
}

type projectSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	FunnelSteps []string  `json:"funnel_steps"`
}

type listProjectsResult struct {
	Projects []projectSummary `json:"projects"`
	Count    int              `json:"count"`
}

type latestReportResult struct {
	Report   *models.FunnelReport   `json:"report"`
	Analysis *models.FunnelAnalysis `json:"analysis,omitempty"`
}

// RegisterProjectTools adds list_projects and get_latest_report.
func RegisterProjectTools(s *server.MCPServer, deps *ProjectToolDeps) {
	registerListProjectsTool(s, deps)
	registerGetLatestReportTool(s, deps)
}

func registerListProjectsTool(s *server.MCPServer, deps *ProjectToolDeps) {
	tool := mcp.NewTool(
		"list_projects",
		mcp.WithDescription("Lists the caller's onboarding funnel projects, newest first, with their ordered step names."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := deps.Projects.List(ctx)
		if err != nil {
			result, rerr := resultFromError(err, "projects are not available for this caller")
			if result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to list projects: %w", rerr)
		}

		out := listProjectsResult{Projects: make([]projectSummary, 0, len(projects))}
		for _, p := range projects {
			out.Projects = append(out.Projects, projectSummary{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				FunnelSteps: p.FunnelSteps,
			})
		}
		out.Count = len(out.Projects)

		deps.Logger.Debug("list_projects", zap.Int("count", out.Count))
		return jsonResult(out)
	})
}

func registerGetLatestReportTool(s *server.MCPServer, deps *ProjectToolDeps) {
	tool := mcp.NewTool(
		"get_latest_report",
		mcp.WithDescription(
			"Returns the most recent funnel report of a project: conversion and drop-off percentages per step, "+
				"total users and completion rate. Set include_analysis for per-step severity and users lost."),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project UUID, as returned by list_projects"),
		),
		mcp.WithBoolean(
			"include_analysis",
			mcp.Description("Include the per-step drop-off breakdown (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawID, err := req.RequireString("project_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", "project_id is required"), nil
		}
		projectID, err := uuid.Parse(rawID)
		if err != nil {
			return NewErrorResult("invalid_parameters", "project_id must be a UUID"), nil
		}

		report, err := deps.Reports.Latest(ctx, projectID)
		if err != nil {
			result, rerr := resultFromError(err, "no report found for this project")
			if result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to load latest report: %w", rerr)
		}

		out := latestReportResult{Report: report}
		if getOptionalBool(req, "include_analysis") {
			out.Analysis = funnel.Analyze(report)
		}
		return jsonResult(out)
	})
}
