package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	formulaRepo    repositories.FormulaRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	formulaRepo repositories.FormulaRepository,
) DashboardService {
	return &dashboardService{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		formulaRepo:    formulaRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	banned := models.UserStatusBanned
	active := models.StatusActive

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.UsersTotal, err = s.userRepo.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.BannedUsers, err = s.userRepo.Count(gctx, &banned)
		return err
	})
	g.Go(func() (err error) {
		stats.TournamentsTotal, err = s.tournamentRepo.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveTournaments, err = s.tournamentRepo.Count(gctx, &active)
		return err
	})
	g.Go(func() (err error) {
		stats.GamesTotal, err = s.gameRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.FormulasTotal, err = s.formulaRepo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return stats, nil
}
