package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pedrohrm/domino-league/leaderboard"
	"github.com/pedrohrm/domino-league/metrics"
	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/repositories"
	"github.com/pedrohrm/domino-league/scoring"
	"github.com/pedrohrm/domino-league/storage"
	"golang.org/x/sync/errgroup"
)

// minRosterSize — минимум активных игроков для старта: две полные дуплы.
const minRosterSize = 4

type CompetitionService interface {
	Create(ctx context.Context, userID int, input CompetitionInput) (*models.Competition, error)
	GetByID(ctx context.Context, userID, competitionID int) (*models.Competition, error)
	List(ctx context.Context, userID int) ([]*models.Competition, error)
	Update(ctx context.Context, userID, competitionID int, input CompetitionInput) (*models.Competition, error)
	Delete(ctx context.Context, userID, competitionID int) error

	AddPlayer(ctx context.Context, userID, competitionID, playerID int) error
	RemovePlayer(ctx context.Context, userID, competitionID, playerID int) error
	ListPlayers(ctx context.Context, userID, competitionID int) ([]*models.Player, error)

	Start(ctx context.Context, userID, competitionID int) (*models.Competition, error)
	// Finish агрегирует итоги всех партий, записывает чемпионов и
	// переводит кампеонато в терминальный статус finished.
	Finish(ctx context.Context, userID, competitionID int) (*models.ChampionSummary, error)
	GetChampions(ctx context.Context, userID, competitionID int) (*models.ChampionSummary, error)

	UploadLogo(ctx context.Context, userID, competitionID int, file io.Reader, contentType string) (*models.Competition, error)
}

type CompetitionInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
	playerRepo      repositories.PlayerRepository
	gameRepo        repositories.GameRepository
	uploader        storage.FileUploader
	board           *leaderboard.Store
	email           *EmailService
	userRepo        repositories.UserRepository
	logger          *slog.Logger
}

func NewCompetitionService(
	competitionRepo repositories.CompetitionRepository,
	playerRepo repositories.PlayerRepository,
	gameRepo repositories.GameRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	board *leaderboard.Store,
	email *EmailService,
	logger *slog.Logger,
) CompetitionService {
	return &competitionService{
		competitionRepo: competitionRepo,
		playerRepo:      playerRepo,
		gameRepo:        gameRepo,
		userRepo:        userRepo,
		uploader:        uploader,
		board:           board,
		email:           email,
		logger:          logger,
	}
}

func (s *competitionService) Create(ctx context.Context, userID int, input CompetitionInput) (*models.Competition, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrCompetitionNameRequired
	}

	startDate := time.Now().UTC()
	if input.StartDate != nil {
		startDate = input.StartDate.UTC()
	}

	competition := &models.Competition{
		PublicID:    uuid.NewString(),
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		StartDate:   startDate,
		Status:      models.CompetitionStatusPending,
	}

	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	return competition, nil
}

func (s *competitionService) GetByID(ctx context.Context, userID, competitionID int) (*models.Competition, error) {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}

	// Состав и партии независимы — грузим параллельно.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		players, err := s.competitionRepo.ListPlayers(gctx, competitionID)
		if err != nil {
			return fmt.Errorf("failed to load competition roster: %w", err)
		}
		competition.Players = dereferencePlayers(players)
		return nil
	})
	g.Go(func() error {
		games, err := s.gameRepo.ListByCompetition(gctx, competitionID)
		if err != nil {
			return fmt.Errorf("failed to load competition games: %w", err)
		}
		competition.Games = dereferenceGames(games)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.populateLogoURL(competition)
	return competition, nil
}

func (s *competitionService) List(ctx context.Context, userID int) ([]*models.Competition, error) {
	competitions, err := s.competitionRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	for _, c := range competitions {
		s.populateLogoURL(c)
	}
	return competitions, nil
}

func (s *competitionService) Update(ctx context.Context, userID, competitionID int, input CompetitionInput) (*models.Competition, error) {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status == models.CompetitionStatusFinished {
		return nil, ErrCompetitionNotEditable
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrCompetitionNameRequired
	}

	competition.Name = input.Name
	competition.Description = input.Description
	if input.StartDate != nil {
		competition.StartDate = input.StartDate.UTC()
	}

	if err := s.competitionRepo.Update(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to update competition %d: %w", competitionID, err)
	}
	s.populateLogoURL(competition)
	return competition, nil
}

func (s *competitionService) Delete(ctx context.Context, userID, competitionID int) error {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return err
	}

	if err := s.competitionRepo.Delete(ctx, competitionID); err != nil {
		return fmt.Errorf("failed to delete competition %d: %w", competitionID, err)
	}

	if s.board != nil {
		if err := s.board.Reset(ctx, competitionID); err != nil {
			s.logger.Warn("failed to reset leaderboard", "competition_id", competitionID, "error", err)
		}
	}
	if competition.LogoKey != nil && s.uploader != nil {
		_ = s.uploader.Delete(ctx, *competition.LogoKey)
	}
	return nil
}

func (s *competitionService) AddPlayer(ctx context.Context, userID, competitionID, playerID int) error {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return err
	}
	if competition.Status == models.CompetitionStatusFinished {
		return ErrCompetitionNotEditable
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	if player.UserID != userID {
		return ErrForbiddenOperation
	}
	if !player.Active {
		return ErrPlayerInactive
	}

	if err := s.competitionRepo.AddPlayer(ctx, competitionID, playerID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionPlayerConflict) {
			return ErrPlayerAlreadyInCompetition
		}
		return fmt.Errorf("failed to add player %d to competition %d: %w", playerID, competitionID, err)
	}
	return nil
}

func (s *competitionService) RemovePlayer(ctx context.Context, userID, competitionID, playerID int) error {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return err
	}
	if competition.Status == models.CompetitionStatusFinished {
		return ErrCompetitionNotEditable
	}

	if err := s.competitionRepo.RemovePlayer(ctx, competitionID, playerID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionPlayerNotFound) {
			return ErrPlayerNotInCompetition
		}
		return fmt.Errorf("failed to remove player %d from competition %d: %w", playerID, competitionID, err)
	}
	return nil
}

func (s *competitionService) ListPlayers(ctx context.Context, userID, competitionID int) ([]*models.Player, error) {
	if _, err := s.loadOwned(ctx, userID, competitionID); err != nil {
		return nil, err
	}
	players, err := s.competitionRepo.ListPlayers(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competition %d players: %w", competitionID, err)
	}
	return players, nil
}

func (s *competitionService) Start(ctx context.Context, userID, competitionID int) (*models.Competition, error) {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionStatusPending {
		if competition.Status == models.CompetitionStatusFinished {
			return nil, ErrCompetitionNotEditable
		}
		return nil, fmt.Errorf("%w: competition already started", ErrValidationFailed)
	}

	roster, err := s.competitionRepo.ListPlayers(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load competition roster: %w", err)
	}
	active := 0
	for _, p := range roster {
		if p.Active {
			active++
		}
	}
	if active < minRosterSize {
		return nil, ErrNotEnoughPlayers
	}

	if err := s.competitionRepo.UpdateStatus(ctx, competitionID, models.CompetitionStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to start competition %d: %w", competitionID, err)
	}
	competition.Status = models.CompetitionStatusInProgress
	s.populateLogoURL(competition)
	return competition, nil
}

func (s *competitionService) Finish(ctx context.Context, userID, competitionID int) (*models.ChampionSummary, error) {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status == models.CompetitionStatusFinished {
		return nil, ErrCompetitionNotEditable
	}
	if competition.Status != models.CompetitionStatusInProgress {
		return nil, ErrCompetitionNotStarted
	}

	games, err := s.gameRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load competition games: %w", err)
	}

	playerIndex, err := s.playerIndex(ctx, games)
	if err != nil {
		return nil, err
	}

	summary, err := scoring.Aggregate(games, playerIndex)
	if err != nil {
		switch {
		case errors.Is(err, scoring.ErrNoGames):
			return nil, ErrCompetitionHasNoGames
		case errors.Is(err, scoring.ErrUnfinishedGame):
			return nil, ErrGamesUnfinished
		}
		return nil, fmt.Errorf("failed to aggregate competition %d: %w", competitionID, err)
	}

	now := time.Now().UTC()
	competition.Status = models.CompetitionStatusFinished
	competition.FinishedAt = &now
	competition.PlayerScores = summary.PlayerScores
	competition.TeamScores = summary.TeamScores
	if summary.BestPlayer != nil {
		competition.BestPlayerID = &summary.BestPlayer.ID
	}
	if len(summary.BestTeam) == 2 {
		competition.BestTeamPlayer1ID = &summary.BestTeam[0].ID
		competition.BestTeamPlayer2ID = &summary.BestTeam[1].ID
	}

	// Итоги и статус пишутся одним UPDATE: либо кампеонато завершён
	// вместе с чемпионами, либо не завершён вовсе.
	if err := s.competitionRepo.SaveChampionSummary(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to save champion summary for competition %d: %w", competitionID, err)
	}

	metrics.CompetitionsFinished.Inc()

	if s.board != nil {
		if err := s.board.Rebuild(ctx, competitionID, summary.PlayerScores); err != nil {
			s.logger.Warn("failed to rebuild leaderboard", "competition_id", competitionID, "error", err)
		}
	}
	s.notifyChampions(ctx, competition, summary)

	return summary, nil
}

func (s *competitionService) GetChampions(ctx context.Context, userID, competitionID int) (*models.ChampionSummary, error) {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionStatusFinished {
		return nil, ErrCompetitionNotStarted
	}

	summary := &models.ChampionSummary{
		PlayerScores: competition.PlayerScores,
		TeamScores:   competition.TeamScores,
	}

	ids := []int{}
	if competition.BestPlayerID != nil {
		ids = append(ids, *competition.BestPlayerID)
	}
	if competition.BestTeamPlayer1ID != nil && competition.BestTeamPlayer2ID != nil {
		ids = append(ids, *competition.BestTeamPlayer1ID, *competition.BestTeamPlayer2ID)
	}
	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load champions: %w", err)
	}
	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	if competition.BestPlayerID != nil {
		summary.BestPlayer = byID[*competition.BestPlayerID]
		summary.BestPlayerWins = competition.PlayerScores[*competition.BestPlayerID]
	}
	if competition.BestTeamPlayer1ID != nil && competition.BestTeamPlayer2ID != nil {
		for _, id := range []int{*competition.BestTeamPlayer1ID, *competition.BestTeamPlayer2ID} {
			if p, ok := byID[id]; ok {
				summary.BestTeam = append(summary.BestTeam, *p)
			}
		}
		key := scoring.TeamKey(*competition.BestTeamPlayer1ID, *competition.BestTeamPlayer2ID)
		summary.BestTeamWins = competition.TeamScores[key]
	}
	return summary, nil
}

func (s *competitionService) UploadLogo(ctx context.Context, userID, competitionID int, file io.Reader, contentType string) (*models.Competition, error) {
	competition, err := s.loadOwned(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, errors.New("file storage is not configured")
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("logos/competition_%d_%s%s", competitionID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for competition %d: %w", competitionID, err)
	}

	oldKey := competition.LogoKey
	if err := s.competitionRepo.UpdateLogoKey(ctx, competitionID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store logo key for competition %d: %w", competitionID, err)
	}
	if oldKey != nil && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	competition.LogoKey = &result.Key
	s.populateLogoURL(competition)
	return competition, nil
}

// playerIndex собирает всех участников перечисленных партий по id.
func (s *competitionService) playerIndex(ctx context.Context, games []*models.Game) (map[int]*models.Player, error) {
	seen := make(map[int]bool)
	ids := []int{}
	for _, g := range games {
		for _, id := range g.PlayerIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load game participants: %w", err)
	}
	index := make(map[int]*models.Player, len(players))
	for _, p := range players {
		index[p.ID] = p
	}
	return index, nil
}

// notifyChampions отправляет письмо организатору; отказ почты не
// должен откатывать уже завершённый кампеонато.
func (s *competitionService) notifyChampions(ctx context.Context, competition *models.Competition, summary *models.ChampionSummary) {
	if s.email == nil {
		return
	}
	owner, err := s.userRepo.GetByID(ctx, competition.UserID)
	if err != nil {
		s.logger.Warn("failed to load competition owner for notification", "competition_id", competition.ID, "error", err)
		return
	}
	if err := s.email.SendChampionNotification(owner.Email, competition, summary); err != nil {
		s.logger.Warn("failed to send champion notification", "competition_id", competition.ID, "error", err)
	}
}

func (s *competitionService) loadOwned(ctx context.Context, userID, competitionID int) (*models.Competition, error) {
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

func (s *competitionService) populateLogoURL(competition *models.Competition) {
	if competition == nil || competition.LogoKey == nil || *competition.LogoKey == "" || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*competition.LogoKey)
	if url != "" {
		competition.LogoURL = &url
	}
}

func dereferencePlayers(slice []*models.Player) []models.Player {
	if slice == nil {
		return []models.Player{}
	}
	result := make([]models.Player, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}

func dereferenceGames(slice []*models.Game) []models.Game {
	if slice == nil {
		return []models.Game{}
	}
	result := make([]models.Game, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}
