package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrohrm/domino-league/leaderboard"
	"github.com/pedrohrm/domino-league/models"
)

type statsFixture struct {
	playerRepo      *fakePlayerRepo
	competitionRepo *fakeCompetitionRepo
	gameRepo        *fakeGameRepo

	ownerID       int
	competitionID int
	playerIDs     []int
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()
	ctx := context.Background()

	f := &statsFixture{ownerID: 1}
	f.playerRepo = newFakePlayerRepo()
	f.competitionRepo = newFakeCompetitionRepo(f.playerRepo)
	f.gameRepo = newFakeGameRepo(f.competitionRepo)
	f.playerRepo.games = f.gameRepo

	for _, name := range []string{"Ana", "Bruno", "Carla", "Dani"} {
		p := f.playerRepo.add(f.ownerID, name)
		f.playerIDs = append(f.playerIDs, p.ID)
	}

	competition := &models.Competition{
		PublicID:  uuid.NewString(),
		UserID:    f.ownerID,
		Name:      "Liga de Teste",
		StartDate: time.Now(),
		Status:    models.CompetitionStatusInProgress,
	}
	require.NoError(t, f.competitionRepo.Create(ctx, competition))
	f.competitionID = competition.ID
	return f
}

func (f *statsFixture) addFinishedGame(t *testing.T, winner models.Team, buchuda, buchudaDeRe bool) {
	t.Helper()
	now := time.Now().UTC()
	team1Score, team2Score := 6, 2
	if winner == models.Team2 {
		team1Score, team2Score = 2, 6
	}
	game := &models.Game{
		PublicID:       uuid.NewString(),
		CompetitionID:  f.competitionID,
		Team1Player1ID: f.playerIDs[0],
		Team1Player2ID: &f.playerIDs[1],
		Team2Player1ID: f.playerIDs[2],
		Team2Player2ID: &f.playerIDs[3],
		Status:         models.GameStatusFinished,
		Team1Score:     team1Score,
		Team2Score:     team2Score,
		WinnerTeam:     &winner,
		IsBuchuda:      buchuda,
		IsBuchudaDeRe:  buchudaDeRe,
		FinishedAt:     &now,
	}
	require.NoError(t, f.gameRepo.Create(context.Background(), game))
}

func TestPlayerStatsTally(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)

	f.addFinishedGame(t, models.Team1, false, false)
	f.addFinishedGame(t, models.Team1, true, false)
	f.addFinishedGame(t, models.Team2, true, true)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewStatsService(f.playerRepo, f.competitionRepo, f.gameRepo, nil, logger)

	ana, err := service.PlayerStats(ctx, f.ownerID, f.playerIDs[0])
	require.NoError(t, err)
	require.NotNil(t, ana.Stats)
	assert.Equal(t, 2, ana.Stats.Wins)
	assert.Equal(t, 1, ana.Stats.Losses)
	assert.Equal(t, 1, ana.Stats.Buchudas)
	assert.Equal(t, 1, ana.Stats.BuchudasTaken)
	assert.Equal(t, 1, ana.Stats.BuchudasDeReTaken)

	carla, err := service.PlayerStats(ctx, f.ownerID, f.playerIDs[2])
	require.NoError(t, err)
	assert.Equal(t, 1, carla.Stats.Wins)
	assert.Equal(t, 2, carla.Stats.Losses)
	assert.Equal(t, 1, carla.Stats.BuchudasDeRe)

	_, err = service.PlayerStats(ctx, 99, f.playerIDs[0])
	require.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestCompetitionLeaderboardFallsBackToSQL(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)

	f.addFinishedGame(t, models.Team1, false, false)
	f.addFinishedGame(t, models.Team1, false, false)
	f.addFinishedGame(t, models.Team2, false, false)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewStatsService(f.playerRepo, f.competitionRepo, f.gameRepo, nil, logger)

	entries, err := service.CompetitionLeaderboard(ctx, f.ownerID, f.competitionID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, f.playerIDs[0], entries[0].PlayerID)
	assert.Equal(t, 2, entries[0].Wins)
	assert.Equal(t, 1, entries[3].Wins)
}

// Промах по Redis должен прогревать таблицу: второй запрос читается
// уже из отсортированного множества.
func TestCompetitionLeaderboardBackfillsRedis(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)

	f.addFinishedGame(t, models.Team1, false, false)
	f.addFinishedGame(t, models.Team2, false, false)
	f.addFinishedGame(t, models.Team2, false, false)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	board := leaderboard.NewStoreWithClient(client)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewStatsService(f.playerRepo, f.competitionRepo, f.gameRepo, board, logger)

	entries, err := service.CompetitionLeaderboard(ctx, f.ownerID, f.competitionID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Wins)

	warmed, err := board.Top(ctx, f.competitionID, 10)
	require.NoError(t, err)
	require.Len(t, warmed, 4)
	assert.Equal(t, 2, warmed[0].Wins)
	assert.Equal(t, 1, warmed[3].Wins)
}
