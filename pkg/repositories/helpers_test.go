//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/testhelpers"
)

// repoTestContext holds test dependencies shared by repository tests.
type repoTestContext struct {
	t        *testing.T
	testDB   *testhelpers.TestDB
	userID   uuid.UUID
	ctx      context.Context
	projects ProjectRepository
	reports  ReportRepository
	insights InsightRepository
}

// setupRepoTest binds a fresh user to a scoped connection on the shared container.
func setupRepoTest(t *testing.T) *repoTestContext {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	userID := uuid.New()
	t.Cleanup(func() { testDB.CleanupUser(t, userID) })

	return &repoTestContext{
		t:        t,
		testDB:   testDB,
		userID:   userID,
		ctx:      testDB.UserContext(t, userID),
		projects: NewProjectRepository(),
		reports:  NewReportRepository(),
		insights: NewInsightRepository(),
	}
}

// otherUser returns a context for a second user, cleaned up with the test.
func (tc *repoTestContext) otherUser() context.Context {
	tc.t.Helper()
	other := uuid.New()
	tc.t.Cleanup(func() { tc.testDB.CleanupUser(tc.t, other) })
	return tc.testDB.UserContext(tc.t, other)
}

func (tc *repoTestContext) createProject(name string, steps ...string) *models.Project {
	tc.t.Helper()
	if len(steps) == 0 {
		steps = []string{"Signup", "Verify", "Activate"}
	}
	project := &models.Project{Name: name, FunnelSteps: steps}
	require.NoError(tc.t, tc.projects.Create(tc.ctx, project))
	return project
}
