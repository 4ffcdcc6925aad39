package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/scoring"
	"github.com/stretchr/testify/suite"
)

type CompetitionServiceSuite struct {
	suite.Suite
	ctx context.Context

	userRepo        *fakeUserRepo
	playerRepo      *fakePlayerRepo
	competitionRepo *fakeCompetitionRepo
	gameRepo        *fakeGameRepo
	service         CompetitionService

	ownerID   int
	playerIDs []int
}

func TestCompetitionServiceSuite(t *testing.T) {
	suite.Run(t, new(CompetitionServiceSuite))
}

func (s *CompetitionServiceSuite) SetupTest() {
	s.ctx = context.Background()

	s.userRepo = newFakeUserRepo()
	s.playerRepo = newFakePlayerRepo()
	s.competitionRepo = newFakeCompetitionRepo(s.playerRepo)
	s.gameRepo = newFakeGameRepo(s.competitionRepo)
	s.playerRepo.games = s.gameRepo

	owner := &models.User{Name: "Pedro", Email: "pedro@example.com", PasswordHash: "x"}
	s.Require().NoError(s.userRepo.Create(s.ctx, owner))
	s.ownerID = owner.ID

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewCompetitionService(
		s.competitionRepo,
		s.playerRepo,
		s.gameRepo,
		s.userRepo,
		nil,
		nil,
		nil,
		logger,
	)

	s.playerIDs = nil
	for _, name := range []string{"Ana", "Bruno", "Carla", "Dani"} {
		p := s.playerRepo.add(s.ownerID, name)
		s.playerIDs = append(s.playerIDs, p.ID)
	}
}

func (s *CompetitionServiceSuite) createCompetition() *models.Competition {
	competition, err := s.service.Create(s.ctx, s.ownerID, CompetitionInput{Name: "Liga do Bairro"})
	s.Require().NoError(err)
	return competition
}

func (s *CompetitionServiceSuite) addRoster(competitionID int, playerIDs ...int) {
	for _, id := range playerIDs {
		s.Require().NoError(s.service.AddPlayer(s.ctx, s.ownerID, competitionID, id))
	}
}

// addFinishedGame регистрирует уже сыгранную партию двух пар.
func (s *CompetitionServiceSuite) addFinishedGame(competitionID int, team1, team2 [2]int, winner models.Team, winnerScore, loserScore int) {
	team1Score, team2Score := winnerScore, loserScore
	if winner == models.Team2 {
		team1Score, team2Score = loserScore, winnerScore
	}
	now := time.Now().UTC()
	game := &models.Game{
		PublicID:       uuid.NewString(),
		CompetitionID:  competitionID,
		Team1Player1ID: team1[0],
		Team1Player2ID: &team1[1],
		Team2Player1ID: team2[0],
		Team2Player2ID: &team2[1],
		Status:         models.GameStatusFinished,
		Team1Score:     team1Score,
		Team2Score:     team2Score,
		WinnerTeam:     &winner,
		FinishedAt:     &now,
	}
	s.Require().NoError(s.gameRepo.Create(s.ctx, game))
}

func (s *CompetitionServiceSuite) TestCreateStartsPending() {
	competition := s.createCompetition()
	s.Equal(models.CompetitionStatusPending, competition.Status)
	s.NotEmpty(competition.PublicID)
}

func (s *CompetitionServiceSuite) TestStartRequiresFourActivePlayers() {
	competition := s.createCompetition()
	s.addRoster(competition.ID, s.playerIDs[0], s.playerIDs[1], s.playerIDs[2])

	_, err := s.service.Start(s.ctx, s.ownerID, competition.ID)
	s.Require().ErrorIs(err, ErrNotEnoughPlayers)

	// Неактивный четвёртый не спасает.
	s.addRoster(competition.ID, s.playerIDs[3])
	s.Require().NoError(s.playerRepo.SetActive(s.ctx, s.playerIDs[3], false))

	_, err = s.service.Start(s.ctx, s.ownerID, competition.ID)
	s.Require().ErrorIs(err, ErrNotEnoughPlayers)

	s.Require().NoError(s.playerRepo.SetActive(s.ctx, s.playerIDs[3], true))
	started, err := s.service.Start(s.ctx, s.ownerID, competition.ID)
	s.Require().NoError(err)
	s.Equal(models.CompetitionStatusInProgress, started.Status)
}

func (s *CompetitionServiceSuite) TestAddPlayerRejectsDuplicateAndInactive() {
	competition := s.createCompetition()
	s.addRoster(competition.ID, s.playerIDs[0])

	err := s.service.AddPlayer(s.ctx, s.ownerID, competition.ID, s.playerIDs[0])
	s.Require().ErrorIs(err, ErrPlayerAlreadyInCompetition)

	s.Require().NoError(s.playerRepo.SetActive(s.ctx, s.playerIDs[1], false))
	err = s.service.AddPlayer(s.ctx, s.ownerID, competition.ID, s.playerIDs[1])
	s.Require().ErrorIs(err, ErrPlayerInactive)
}

func (s *CompetitionServiceSuite) startedCompetition() *models.Competition {
	competition := s.createCompetition()
	s.addRoster(competition.ID, s.playerIDs...)
	started, err := s.service.Start(s.ctx, s.ownerID, competition.ID)
	s.Require().NoError(err)
	return started
}

func (s *CompetitionServiceSuite) TestFinishRequiresGames() {
	competition := s.startedCompetition()

	_, err := s.service.Finish(s.ctx, s.ownerID, competition.ID)
	s.Require().ErrorIs(err, ErrCompetitionHasNoGames)
}

func (s *CompetitionServiceSuite) TestFinishRejectsUnfinishedGames() {
	competition := s.startedCompetition()

	game := &models.Game{
		PublicID:       uuid.NewString(),
		CompetitionID:  competition.ID,
		Team1Player1ID: s.playerIDs[0],
		Team1Player2ID: &s.playerIDs[1],
		Team2Player1ID: s.playerIDs[2],
		Team2Player2ID: &s.playerIDs[3],
		Status:         models.GameStatusInProgress,
	}
	s.Require().NoError(s.gameRepo.Create(s.ctx, game))

	_, err := s.service.Finish(s.ctx, s.ownerID, competition.ID)
	s.Require().ErrorIs(err, ErrGamesUnfinished)
}

func (s *CompetitionServiceSuite) TestFinishAggregatesChampions() {
	competition := s.startedCompetition()
	ana, bruno, carla, dani := s.playerIDs[0], s.playerIDs[1], s.playerIDs[2], s.playerIDs[3]

	// Ана выигрывает обе партии, в разных дуплах.
	s.addFinishedGame(competition.ID, [2]int{ana, bruno}, [2]int{carla, dani}, models.Team1, 6, 2)
	s.addFinishedGame(competition.ID, [2]int{ana, carla}, [2]int{bruno, dani}, models.Team1, 6, 3)

	summary, err := s.service.Finish(s.ctx, s.ownerID, competition.ID)
	s.Require().NoError(err)

	s.Equal(map[int]int{ana: 2, bruno: 1, carla: 1}, summary.PlayerScores)
	s.Require().NotNil(summary.BestPlayer)
	s.Equal(ana, summary.BestPlayer.ID)
	s.Equal(2, summary.BestPlayerWins)

	// Обе дуплы Аны выиграли по разу; тай-брейк по сумме очков дупл.
	s.Require().Len(summary.BestTeam, 2)
	s.Equal(ana, summary.BestTeam[0].ID)
	s.Equal(bruno, summary.BestTeam[1].ID)
	s.Equal(1, summary.BestTeamWins)

	stored, err := s.competitionRepo.GetByID(s.ctx, competition.ID)
	s.Require().NoError(err)
	s.Equal(models.CompetitionStatusFinished, stored.Status)
	s.Require().NotNil(stored.BestPlayerID)
	s.Equal(ana, *stored.BestPlayerID)
	s.Equal(1, summary.TeamScores[scoring.TeamKey(ana, bruno)])
	s.Require().NotNil(stored.FinishedAt)

	// Повторное завершение запрещено.
	_, err = s.service.Finish(s.ctx, s.ownerID, competition.ID)
	s.Require().ErrorIs(err, ErrCompetitionNotEditable)
}

func (s *CompetitionServiceSuite) TestGetChampionsReadsPersistedSummary() {
	competition := s.startedCompetition()
	ana, bruno, carla, dani := s.playerIDs[0], s.playerIDs[1], s.playerIDs[2], s.playerIDs[3]

	s.addFinishedGame(competition.ID, [2]int{ana, bruno}, [2]int{carla, dani}, models.Team1, 7, 0)

	finished, err := s.service.Finish(s.ctx, s.ownerID, competition.ID)
	s.Require().NoError(err)

	summary, err := s.service.GetChampions(s.ctx, s.ownerID, competition.ID)
	s.Require().NoError(err)

	s.Equal(finished.PlayerScores, summary.PlayerScores)
	s.Require().NotNil(summary.BestPlayer)
	s.Equal(finished.BestPlayer.ID, summary.BestPlayer.ID)
	s.Require().Len(summary.BestTeam, 2)
	s.Equal(finished.BestTeamWins, summary.BestTeamWins)
}

func (s *CompetitionServiceSuite) TestRosterLockedAfterFinish() {
	competition := s.startedCompetition()
	ana, bruno, carla, dani := s.playerIDs[0], s.playerIDs[1], s.playerIDs[2], s.playerIDs[3]
	s.addFinishedGame(competition.ID, [2]int{ana, bruno}, [2]int{carla, dani}, models.Team1, 6, 1)

	_, err := s.service.Finish(s.ctx, s.ownerID, competition.ID)
	s.Require().NoError(err)

	extra := s.playerRepo.add(s.ownerID, "Edu")
	err = s.service.AddPlayer(s.ctx, s.ownerID, competition.ID, extra.ID)
	s.Require().ErrorIs(err, ErrCompetitionNotEditable)
}
