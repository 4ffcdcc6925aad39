package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pedrohrm/domino-league/leaderboard"
	"github.com/pedrohrm/domino-league/live"
	"github.com/pedrohrm/domino-league/metrics"
	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/repositories"
	"github.com/pedrohrm/domino-league/scoring"
)

type GameService interface {
	Create(ctx context.Context, userID int, input GameInput) (*models.Game, error)
	GetByID(ctx context.Context, userID, gameID int) (*models.Game, error)
	ListByCompetition(ctx context.Context, userID, competitionID int) ([]*models.Game, error)
	Start(ctx context.Context, userID, gameID int) (*models.Game, error)
	// SubmitRound проводит заявленный исход через движок счёта и
	// сохраняет агрегат одной записью. Заявки по одной партии строго
	// последовательны.
	SubmitRound(ctx context.Context, userID, gameID int, input RoundInput) (*models.Game, error)
	Delete(ctx context.Context, userID, gameID int) error
}

type GameInput struct {
	CompetitionID  int  `json:"competition_id"`
	Team1Player1ID int  `json:"team1_player1_id"`
	Team1Player2ID *int `json:"team1_player2_id,omitempty"`
	Team2Player1ID int  `json:"team2_player1_id"`
	Team2Player2ID *int `json:"team2_player2_id,omitempty"`
}

type RoundInput struct {
	Type        models.ResultType `json:"type"`
	WinningTeam models.Team       `json:"winning_team"`
}

type gameService struct {
	gameRepo        repositories.GameRepository
	competitionRepo repositories.CompetitionRepository
	board           *leaderboard.Store
	hub             *live.Hub
	logger          *slog.Logger

	// Мьютекс на партию: две конкурирующие заявки раундов никогда не
	// перемежаются, проигравшая видит уже обновлённую историю.
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewGameService(
	gameRepo repositories.GameRepository,
	competitionRepo repositories.CompetitionRepository,
	board *leaderboard.Store,
	hub *live.Hub,
	logger *slog.Logger,
) GameService {
	return &gameService{
		gameRepo:        gameRepo,
		competitionRepo: competitionRepo,
		board:           board,
		hub:             hub,
		logger:          logger,
		locks:           make(map[int]*sync.Mutex),
	}
}

func (s *gameService) Create(ctx context.Context, userID int, input GameInput) (*models.Game, error) {
	competition, err := s.loadOwnedCompetition(ctx, userID, input.CompetitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionStatusInProgress {
		return nil, ErrCompetitionNotStarted
	}

	game := &models.Game{
		PublicID:       uuid.NewString(),
		CompetitionID:  input.CompetitionID,
		Team1Player1ID: input.Team1Player1ID,
		Team1Player2ID: input.Team1Player2ID,
		Team2Player1ID: input.Team2Player1ID,
		Team2Player2ID: input.Team2Player2ID,
		Status:         models.GameStatusPending,
		Rounds:         []models.Round{},
	}

	if err := validateTeams(game); err != nil {
		return nil, err
	}
	if err := s.validateRoster(ctx, competition.ID, game); err != nil {
		return nil, err
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGamePlayerInvalid) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (s *gameService) GetByID(ctx context.Context, userID, gameID int) (*models.Game, error) {
	game, _, err := s.loadOwnedGame(ctx, userID, gameID)
	return game, err
}

func (s *gameService) ListByCompetition(ctx context.Context, userID, competitionID int) ([]*models.Game, error) {
	if _, err := s.loadOwnedCompetition(ctx, userID, competitionID); err != nil {
		return nil, err
	}
	games, err := s.gameRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for competition %d: %w", competitionID, err)
	}
	return games, nil
}

func (s *gameService) Start(ctx context.Context, userID, gameID int) (*models.Game, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, _, err := s.loadOwnedGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}

	if err := scoring.StartGame(game); err != nil {
		return nil, err
	}
	if err := s.gameRepo.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game %d: %w", gameID, err)
	}
	return game, nil
}

func (s *gameService) SubmitRound(ctx context.Context, userID, gameID int, input RoundInput) (*models.Game, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, competition, err := s.loadOwnedGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionStatusInProgress {
		return nil, ErrCompetitionNotStarted
	}

	round, err := scoring.ApplyRound(game, input.Type, input.WinningTeam)
	if err != nil {
		return nil, err
	}

	if err := s.gameRepo.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game %d: %w", gameID, err)
	}

	metrics.RoundsSubmitted.Inc()
	s.broadcast(game, live.MessageRoundRecorded, round)

	if game.Status == models.GameStatusFinished {
		s.onGameFinished(ctx, game)
	}
	return game, nil
}

func (s *gameService) Delete(ctx context.Context, userID, gameID int) error {
	game, _, err := s.loadOwnedGame(ctx, userID, gameID)
	if err != nil {
		return err
	}
	if game.Status == models.GameStatusFinished {
		return ErrGameAlreadyFinished
	}

	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to delete game %d: %w", gameID, err)
	}
	return nil
}

// onGameFinished публикует побочные эффекты завершения: метрики,
// лидерборд и live-рассылку. Все они вне транзакции и не фатальны.
func (s *gameService) onGameFinished(ctx context.Context, game *models.Game) {
	metrics.GamesFinished.Inc()
	if game.IsBuchuda {
		metrics.SpecialVictories.WithLabelValues("buchuda").Inc()
	}
	if game.IsBuchudaDeRe {
		metrics.SpecialVictories.WithLabelValues("buchuda_de_re").Inc()
	}

	if s.board != nil && game.WinnerTeam != nil {
		winnerIDs := game.TeamPlayerIDs(*game.WinnerTeam)
		if err := s.board.RecordWin(ctx, game.CompetitionID, winnerIDs...); err != nil {
			s.logger.Warn("failed to record leaderboard win",
				"game_id", game.ID, "competition_id", game.CompetitionID, "error", err)
		}
	}

	s.broadcast(game, live.MessageGameFinished, game)
}

func (s *gameService) broadcast(game *models.Game, messageType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToGame(game.PublicID, messageType, payload); err != nil {
		s.logger.Warn("failed to broadcast game update",
			"game_id", game.ID, "type", messageType, "error", err)
	}
}

func (s *gameService) gameLock(gameID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[gameID] = lock
	}
	return lock
}

func (s *gameService) loadOwnedGame(ctx context.Context, userID, gameID int) (*models.Game, *models.Competition, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, nil, ErrGameNotFound
		}
		return nil, nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	competition, err := s.loadOwnedCompetition(ctx, userID, game.CompetitionID)
	if err != nil {
		return nil, nil, err
	}
	return game, competition, nil
}

func (s *gameService) loadOwnedCompetition(ctx context.Context, userID, competitionID int) (*models.Competition, error) {
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
	return competition, nil
}

// validateTeams проверяет, что дуплы не пересекаются и внутри дуплы
// нет дублей. Второе место в дупле может пустовать.
func validateTeams(game *models.Game) error {
	seen := make(map[int]models.Team)

	add := func(id int, team models.Team) error {
		if prev, ok := seen[id]; ok {
			if prev != team {
				return ErrTeamsSharePlayer
			}
			return fmt.Errorf("%w: player %d listed twice", ErrValidationFailed, id)
		}
		seen[id] = team
		return nil
	}

	for _, id := range game.TeamPlayerIDs(models.Team1) {
		if err := add(id, models.Team1); err != nil {
			return err
		}
	}
	for _, id := range game.TeamPlayerIDs(models.Team2) {
		if err := add(id, models.Team2); err != nil {
			return err
		}
	}
	return nil
}

// validateRoster требует, чтобы каждый участник партии состоял в
// кампеонато и был активен.
func (s *gameService) validateRoster(ctx context.Context, competitionID int, game *models.Game) error {
	roster, err := s.competitionRepo.ListPlayers(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load competition roster: %w", err)
	}
	byID := make(map[int]*models.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	for _, id := range game.PlayerIDs() {
		p, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: player %d", ErrPlayerNotInCompetition, id)
		}
		if !p.Active {
			return fmt.Errorf("%w: player %d", ErrPlayerInactive, id)
		}
	}
	return nil
}
