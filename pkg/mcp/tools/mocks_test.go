package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

type mockProjectService struct {
	projects []*models.Project
	listErr  error
}

func (m *mockProjectService) Create(ctx context.Context, input services.CreateProjectInput) (*models.Project, error) {
	return nil, apperrors.ErrInvalidInput
}

func (m *mockProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return m.projects, m.listErr
}

func (m *mockProjectService) Update(ctx context.Context, id uuid.UUID, input services.UpdateProjectInput) (*models.Project, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return apperrors.ErrNotFound
}

type mockReportService struct {
	latest    map[uuid.UUID]*models.FunnelReport
	latestErr error
}

func (m *mockReportService) Ingest(ctx context.Context, projectID uuid.UUID, data models.FunnelData) (*models.FunnelReport, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockReportService) Create(ctx context.Context, projectID uuid.UUID, data models.ReportData) (*models.FunnelReport, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockReportService) List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error) {
	return nil, nil
}

func (m *mockReportService) Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	if r, ok := m.latest[projectID]; ok {
		return r, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockReportService) GenerateMock(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockReportService) Analysis(ctx context.Context, projectID uuid.UUID) (*models.FunnelAnalysis, error) {
	return nil, apperrors.ErrNotFound
}

var (
	_ services.ProjectService = (*mockProjectService)(nil)
	_ services.ReportService  = (*mockReportService)(nil)
)

// toolResponse is the JSON-RPC envelope returned by HandleMessage for tools/call.
type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool sends a tools/call request through the server and decodes the reply.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), body))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

// text returns the first text content of a tool response.
func (r toolResponse) text(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.Result.Content, "expected content in tool result")
	return r.Result.Content[0].Text
}
