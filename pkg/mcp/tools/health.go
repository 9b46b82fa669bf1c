package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/onboardlens/onboardlens/pkg/services"
)

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool reports database connectivity and the server version, the same
// payload as GET /api/health. An unhealthy status is an error result.
func RegisterHealthTool(s *server.MCPServer, health services.HealthService) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, database connectivity and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := health.Check(ctx)
		result, err := jsonResult(status)
		if err != nil {
			return nil, err
		}
		result.IsError = !status.Healthy()
		return result, nil
	})
}
