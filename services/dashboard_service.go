package services

import (
	"context"
	"fmt"

	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context, userID int) (*models.DashboardStats, error)
}

type dashboardService struct {
	playerRepo      repositories.PlayerRepository
	competitionRepo repositories.CompetitionRepository
	gameRepo        repositories.GameRepository
}

func NewDashboardService(
	playerRepo repositories.PlayerRepository,
	competitionRepo repositories.CompetitionRepository,
	gameRepo repositories.GameRepository,
) DashboardService {
	return &dashboardService{
		playerRepo:      playerRepo,
		competitionRepo: competitionRepo,
		gameRepo:        gameRepo,
	}
}

// GetStats собирает сводку аккаунта; счётчики независимы, поэтому
// запросы идут параллельно.
func (s *dashboardService) GetStats(ctx context.Context, userID int) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.playerRepo.CountByOwner(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count players: %w", err)
		}
		stats.PlayersTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.competitionRepo.CountByOwner(gctx, userID, nil)
		if err != nil {
			return fmt.Errorf("failed to count competitions: %w", err)
		}
		stats.CompetitionsTotal = count
		return nil
	})
	g.Go(func() error {
		inProgress := models.CompetitionStatusInProgress
		count, err := s.competitionRepo.CountByOwner(gctx, userID, &inProgress)
		if err != nil {
			return fmt.Errorf("failed to count active competitions: %w", err)
		}
		stats.ActiveCompetitions = count
		return nil
	})
	g.Go(func() error {
		count, err := s.gameRepo.CountByOwner(gctx, userID, nil)
		if err != nil {
			return fmt.Errorf("failed to count games: %w", err)
		}
		stats.GamesTotal = count
		return nil
	})
	g.Go(func() error {
		finished := models.GameStatusFinished
		count, err := s.gameRepo.CountByOwner(gctx, userID, &finished)
		if err != nil {
			return fmt.Errorf("failed to count finished games: %w", err)
		}
		stats.GamesFinished = count
		return nil
	})
	g.Go(func() error {
		buchudas, buchudasDeRe, err := s.gameRepo.CountSpecialByOwner(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count special victories: %w", err)
		}
		stats.Buchudas = buchudas
		stats.BuchudasDeRe = buchudasDeRe
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
