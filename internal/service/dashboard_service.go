package service

import (
	"context"
	"fmt"

	"coffee-on/internal/model"
	"coffee-on/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardMonths = 6
	dashboardTopN   = 5
)

// dashboardService implements DashboardService.
type dashboardService struct {
	repo   repository.DashboardRepository
	logger zerolog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(repo repository.DashboardRepository, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		logger: logger.With().Str("service", "dashboard").Logger(),
	}
}

// Summary runs the four aggregates concurrently. The first failure cancels
// the others.
func (s *dashboardService) Summary(ctx context.Context, actor *model.Actor) (*model.DashboardSummary, error) {
	if !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}

	var summary model.DashboardSummary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.repo.Totals(gctx)
		if err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		summary.Totals = totals
		return nil
	})

	g.Go(func() error {
		monthly, err := s.repo.MonthlySales(gctx, dashboardMonths)
		if err != nil {
			return fmt.Errorf("monthly sales: %w", err)
		}
		summary.Monthly = monthly
		return nil
	})

	g.Go(func() error {
		products, err := s.repo.TopProducts(gctx, dashboardTopN)
		if err != nil {
			return fmt.Errorf("top products: %w", err)
		}
		summary.TopProducts = products
		return nil
	})

	g.Go(func() error {
		customers, err := s.repo.TopCustomers(gctx, dashboardTopN)
		if err != nil {
			return fmt.Errorf("top customers: %w", err)
		}
		summary.TopCustomers = customers
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to build dashboard summary")
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}

	return &summary, nil
}
