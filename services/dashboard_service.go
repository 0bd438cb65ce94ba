package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	userRepo  repositories.UserRepository
	teamRepo  repositories.TeamRepository
	matchRepo repositories.MatchRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
) DashboardService {
	return &dashboardService{
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	approved, pending := true, false

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.UsersTotal, err = s.userRepo.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.TeamsTotal, err = s.teamRepo.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.ApprovedMatches, err = s.matchRepo.Count(gCtx, nil, &approved)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingMatches, err = s.matchRepo.Count(gCtx, nil, &pending)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}
