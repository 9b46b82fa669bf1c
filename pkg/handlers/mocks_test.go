package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/database"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// mockProjectService is a configurable mock for handler tests.
type mockProjectService struct {
	project  *models.Project
	projects []*models.Project
	err      error

	createInput services.CreateProjectInput
	updateInput services.UpdateProjectInput
	deletedID   uuid.UUID
}

func (m *mockProjectService) Create(ctx context.Context, input services.CreateProjectInput) (*models.Project, error) {
	m.createInput = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Project{ID: uuid.New(), Name: input.Name, Description: input.Description, FunnelSteps: input.FunnelSteps}, nil
}

func (m *mockProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.project != nil {
		return m.project, nil
	}
	return &models.Project{ID: id, Name: "Test Project", FunnelSteps: []string{"Sign up"}}, nil
}

func (m *mockProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return m.projects, m.err
}

func (m *mockProjectService) Update(ctx context.Context, id uuid.UUID, input services.UpdateProjectInput) (*models.Project, error) {
	m.updateInput = input
	if m.err != nil {
		return nil, m.err
	}
	p := &models.Project{ID: id, Name: "Test Project"}
	if input.Name != nil {
		p.Name = *input.Name
	}
	return p, nil
}

func (m *mockProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.err
}

// mockReportService records the arguments of the last call.
type mockReportService struct {
	report   *models.FunnelReport
	reports  []*models.FunnelReport
	analysis *models.FunnelAnalysis
	err      error

	ingested      models.FunnelData
	created       models.ReportData
	listProjectID *uuid.UUID
	calledWith    uuid.UUID
}

func (m *mockReportService) result(projectID uuid.UUID) (*models.FunnelReport, error) {
	m.calledWith = projectID
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &models.FunnelReport{ID: uuid.New(), ProjectID: projectID}, nil
}

func (m *mockReportService) Ingest(ctx context.Context, projectID uuid.UUID, data models.FunnelData) (*models.FunnelReport, error) {
	m.ingested = data
	return m.result(projectID)
}

func (m *mockReportService) Create(ctx context.Context, projectID uuid.UUID, data models.ReportData) (*models.FunnelReport, error) {
	m.created = data
	report, err := m.result(projectID)
	if err == nil && m.report == nil {
		report.ReportData = data
	}
	return report, err
}

func (m *mockReportService) List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error) {
	m.listProjectID = projectID
	return m.reports, m.err
}

func (m *mockReportService) Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	return m.result(projectID)
}

func (m *mockReportService) GenerateMock(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	return m.result(projectID)
}

func (m *mockReportService) Analysis(ctx context.Context, projectID uuid.UUID) (*models.FunnelAnalysis, error) {
	m.calledWith = projectID
	if m.err != nil {
		return nil, m.err
	}
	return m.analysis, nil
}

type mockInsightService struct {
	result   *services.GenerateInsightsResult
	insights []*models.Insight
	err      error

	reportID *uuid.UUID
	data     models.ReportData
}

func (m *mockInsightService) Generate(ctx context.Context, projectID uuid.UUID, reportID *uuid.UUID, data models.ReportData) (*services.GenerateInsightsResult, error) {
	m.reportID = reportID
	m.data = data
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockInsightService) List(ctx context.Context, projectID uuid.UUID) ([]*models.Insight, error) {
	return m.insights, m.err
}

type mockWebhookService struct {
	verifyErr  error
	processErr error
	processed  *models.WebhookEvent
}

func (m *mockWebhookService) VerifySignature(body []byte, signature string) error {
	return m.verifyErr
}

func (m *mockWebhookService) Process(ctx context.Context, event *models.WebhookEvent) error {
	m.processed = event
	return m.processErr
}

type mockDashboardService struct {
	stats     *models.DashboardStats
	err       error
	userID    uuid.UUID
	scopeHeld bool
}

func (m *mockDashboardService) Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	m.userID = userID
	_, m.scopeHeld = database.GetUserScope(ctx)
	return m.stats, m.err
}

type stubHealthService struct {
	status *services.HealthStatus
}

func (s *stubHealthService) Check(ctx context.Context) *services.HealthStatus {
	return s.status
}

// mockAuthService returns fixed claims, or err when set.
type mockAuthService struct {
	claims *auth.Claims
	token  string
	err    error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.claims, m.token, nil
}

// withUser attaches claims for userID to the request.
func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	claims := &auth.Claims{}
	claims.Subject = userID.String()
	return r.WithContext(auth.WithClaims(r.Context(), claims, "test-token"))
}

// passthroughUser stands in for database.WithUserContext.
func passthroughUser(next http.HandlerFunc) http.HandlerFunc {
	return next
}

// errorMessage decodes an {"error": ...} body.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response %q: %v", rec.Body.String(), err)
	}
	return resp["error"]
}
