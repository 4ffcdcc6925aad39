package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pedrohrm/domino-league/leaderboard"
	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/repositories"
	"golang.org/x/sync/errgroup"
)

const defaultLeaderboardSize = 10

type StatsService interface {
	// PlayerStats считает статистику игрока по всем завершённым партиям.
	PlayerStats(ctx context.Context, userID, playerID int) (*models.Player, error)
	// CompetitionLeaderboard отдаёт топ игроков кампеонато по победам.
	// Источник — Redis; при промахе таблица пересчитывается из партий.
	CompetitionLeaderboard(ctx context.Context, userID, competitionID, limit int) ([]leaderboard.Entry, error)
}

type statsService struct {
	playerRepo      repositories.PlayerRepository
	competitionRepo repositories.CompetitionRepository
	gameRepo        repositories.GameRepository
	board           *leaderboard.Store
	logger          *slog.Logger
}

func NewStatsService(
	playerRepo repositories.PlayerRepository,
	competitionRepo repositories.CompetitionRepository,
	gameRepo repositories.GameRepository,
	board *leaderboard.Store,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		playerRepo:      playerRepo,
		competitionRepo: competitionRepo,
		gameRepo:        gameRepo,
		board:           board,
		logger:          logger,
	}
}

func (s *statsService) PlayerStats(ctx context.Context, userID, playerID int) (*models.Player, error) {
	var (
		player *models.Player
		games  []*models.Game
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.playerRepo.GetByID(gctx, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("failed to load player %d: %w", playerID, err)
		}
		player = p
		return nil
	})
	g.Go(func() error {
		gs, err := s.gameRepo.ListByPlayer(gctx, playerID)
		if err != nil {
			return fmt.Errorf("failed to load games for player %d: %w", playerID, err)
		}
		games = gs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if player.UserID != userID {
		return nil, ErrForbiddenOperation
	}

	player.Stats = tallyPlayerStats(playerID, games)
	return player, nil
}

func tallyPlayerStats(playerID int, games []*models.Game) *models.PlayerStats {
	stats := &models.PlayerStats{}
	for _, game := range games {
		if game.Status != models.GameStatusFinished || game.WinnerTeam == nil {
			continue
		}

		won := false
		for _, id := range game.TeamPlayerIDs(*game.WinnerTeam) {
			if id == playerID {
				won = true
				break
			}
		}

		if won {
			stats.Wins++
			if game.IsBuchuda {
				stats.Buchudas++
			}
			if game.IsBuchudaDeRe {
				stats.BuchudasDeRe++
			}
		} else {
			stats.Losses++
			if game.IsBuchuda {
				stats.BuchudasTaken++
			}
			if game.IsBuchudaDeRe {
				stats.BuchudasDeReTaken++
			}
		}
	}
	return stats
}

func (s *statsService) CompetitionLeaderboard(ctx context.Context, userID, competitionID, limit int) ([]leaderboard.Entry, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition %d: %w", competitionID, err)
	}
	if competition.UserID != userID {
		return nil, ErrForbiddenOperation
	}

	if limit <= 0 {
		limit = defaultLeaderboardSize
	}

	if s.board != nil {
		entries, err := s.board.Top(ctx, competitionID, limit)
		if err != nil {
			s.logger.Warn("leaderboard read failed, falling back to SQL",
				"competition_id", competitionID, "error", err)
		} else if len(entries) > 0 {
			return entries, nil
		}
	}

	// Redis пуст или недоступен: пересчитываем победы из партий и
	// заодно прогреваем таблицу на следующие запросы.
	wins, err := s.winsFromGames(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if s.board != nil && len(wins) > 0 {
		if err := s.board.Rebuild(ctx, competitionID, wins); err != nil {
			s.logger.Warn("leaderboard backfill failed", "competition_id", competitionID, "error", err)
		}
	}
	return leaderboard.EntriesFromWins(wins, limit), nil
}

func (s *statsService) winsFromGames(ctx context.Context, competitionID int) (map[int]int, error) {
	games, err := s.gameRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games for competition %d: %w", competitionID, err)
	}

	wins := make(map[int]int)
	for _, game := range games {
		if game.Status != models.GameStatusFinished || game.WinnerTeam == nil {
			continue
		}
		for _, id := range game.TeamPlayerIDs(*game.WinnerTeam) {
			wins[id]++
		}
	}
	return wins, nil
}
