package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/onboardlens/onboardlens/pkg/database"
	"github.com/onboardlens/onboardlens/pkg/funnel"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/repositories"
)

// errScopeHeld is returned when Stats is called on a context that already
// holds a user-bound connection.
var errScopeHeld = errors.New("dashboard stats called with a user scope already bound")

// RecentReportsLimit is how many of the newest reports the dashboard averages over.
const RecentReportsLimit = 10

// DashboardService computes the caller's workspace summary.
type DashboardService interface {
	// Stats binds its own connections for userID, so ctx must not already
	// hold a user scope.
	Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
}

type dashboardService struct {
	projects repositories.ProjectRepository
	reports  repositories.ReportRepository
	insights repositories.InsightRepository
	withUser UserContextFunc
	logger   *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	projects repositories.ProjectRepository,
	reports repositories.ReportRepository,
	insights repositories.InsightRepository,
	withUser UserContextFunc,
	logger *zap.Logger,
) DashboardService {
	return &dashboardService{
		projects: projects,
		reports:  reports,
		insights: insights,
		withUser: withUser,
		logger:   logger.Named("dashboard"),
	}
}

// Stats runs its three reads in parallel. A pooled connection serves one
// query at a time, so each read binds its own connection to the caller and
// holds nothing else while acquiring it.
func (s *dashboardService) Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	if _, held := database.GetUserScope(ctx); held {
		return nil, errScopeHeld
	}

	var (
		stats  models.DashboardStats
		recent []*models.FunnelReport
	)

	g, gctx := errgroup.WithContext(ctx)
	scoped := func(name string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			userCtx, cleanup, err := s.withUser(gctx, userID)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			defer cleanup()
			if err := fn(userCtx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	scoped("count projects", func(ctx context.Context) error {
		n, err := s.projects.Count(ctx)
		stats.TotalProjects = n
		return err
	})
	scoped("recent reports", func(ctx context.Context) error {
		r, err := s.reports.ListRecent(ctx, RecentReportsLimit)
		recent = r
		return err
	})
	scoped("count insights", func(ctx context.Context) error {
		n, err := s.insights.Count(ctx)
		stats.AIInsights = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard stats", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}

	stats.RecentReports = len(recent)
	stats.AvgConversionRate = funnel.AverageCompletionRate(recent)
	return &stats, nil
}

var _ DashboardService = (*dashboardService)(nil)
