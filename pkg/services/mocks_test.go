package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/models"
)

// ============================================================================
// In-memory repositories. Ownership follows the user bound in the context,
// mirroring the owner_id filters of the real repositories.
// ============================================================================

type mockProjectRepo struct {
	mu        sync.Mutex
	projects  map[uuid.UUID]*models.Project
	createErr error
	countErr  error
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
}

func (m *mockProjectRepo) add(owner uuid.UUID, name string, steps ...string) *models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Project{ID: uuid.New(), OwnerID: owner, Name: name, FunnelSteps: steps}
	m.projects[p.ID] = p
	return p
}

func (m *mockProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if m.createErr != nil {
		return m.createErr
	}
	owner, err := scopeUserID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	project.ID = uuid.New()
	project.OwnerID = owner
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	owner, err := scopeUserID(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.OwnerID != owner {
		return nil, apperrors.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	owner, err := scopeUserID(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Project, 0)
	for _, p := range m.projects {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectRepo) Update(ctx context.Context, project *models.Project) error {
	if _, err := m.Get(ctx, project.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func (m *mockProjectRepo) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	projects, err := m.List(ctx)
	return len(projects), err
}

type mockReportRepo struct {
	mu        sync.Mutex
	reports   []*models.FunnelReport
	createErr error
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.FunnelReport) error {
	if m.createErr != nil {
		return m.createErr
	}
	owner, err := scopeUserID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	report.ID = uuid.New()
	report.OwnerID = owner
	m.reports = append(m.reports, report)
	return nil
}

func (m *mockReportRepo) owned(ctx context.Context) ([]*models.FunnelReport, error) {
	owner, err := scopeUserID(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.FunnelReport, 0)
	for _, r := range m.reports {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (m *mockReportRepo) List(ctx context.Context, projectID *uuid.UUID) ([]*models.FunnelReport, error) {
	reports, err := m.owned(ctx)
	if err != nil || projectID == nil {
		return reports, err
	}
	filtered := make([]*models.FunnelReport, 0)
	for _, r := range reports {
		if r.ProjectID == *projectID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (m *mockReportRepo) Latest(ctx context.Context, projectID uuid.UUID) (*models.FunnelReport, error) {
	reports, err := m.List(ctx, &projectID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return reports[0], nil
}

func (m *mockReportRepo) ListRecent(ctx context.Context, limit int) ([]*models.FunnelReport, error) {
	reports, err := m.owned(ctx)
	if err != nil {
		return nil, err
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (m *mockReportRepo) Count(ctx context.Context) (int, error) {
	reports, err := m.owned(ctx)
	return len(reports), err
}

type mockInsightRepo struct {
	mu       sync.Mutex
	insights []*models.Insight
	batchErr error
}

func (m *mockInsightRepo) CreateBatch(ctx context.Context, insights []*models.Insight) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	owner, err := scopeUserID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range insights {
		in.ID = uuid.New()
		in.OwnerID = owner
		m.insights = append(m.insights, in)
	}
	return nil
}

func (m *mockInsightRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Insight, 0)
	for _, in := range m.insights {
		if in.ProjectID == projectID && len(out) < limit {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *mockInsightRepo) Count(ctx context.Context) (int, error) {
	owner, err := scopeUserID(ctx)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, in := range m.insights {
		if in.OwnerID == owner {
			n++
		}
	}
	return n, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []models.ProjectEvent
}

func (m *mockPublisher) Publish(event models.ProjectEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

type mockDBChecker struct {
	err error
}

func (m *mockDBChecker) Check(ctx context.Context) error {
	return m.err
}

var errBoom = errors.New("boom")
