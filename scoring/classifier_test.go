package scoring

import (
	"testing"

	"github.com/pedrohrm/domino-league/models"
	"github.com/stretchr/testify/assert"
)

func win(team models.Team, points int) models.Round {
	return models.Round{Type: models.ResultSimple, WinningTeam: team, Points: points}
}

func TestClassifyBuchuda(t *testing.T) {
	rounds := []models.Round{
		win(models.Team1, 4),
		win(models.Team1, 2),
	}

	buchuda, buchudaDeRe := Classify(rounds, models.Team1)
	assert.True(t, buchuda, "loser never scored")
	assert.False(t, buchudaDeRe)
}

func TestClassifyBuchudaDeRe(t *testing.T) {
	rounds := []models.Round{
		win(models.Team2, 4), // 0x4
		win(models.Team2, 1), // 0x5 — checkpoint
		win(models.Team1, 4), // 4x5
		win(models.Team1, 3), // 7x5
	}

	buchuda, buchudaDeRe := Classify(rounds, models.Team1)
	assert.False(t, buchuda)
	assert.True(t, buchudaDeRe, "team1 came back from 0x5")
}

func TestClassifyReversalNeedsExactCheckpoint(t *testing.T) {
	// Отставание 1x5 — не бучуда де ре: чекпойнт строго 0x5.
	rounds := []models.Round{
		win(models.Team1, 1), // 1x0
		win(models.Team2, 4), // 1x4
		win(models.Team2, 1), // 1x5
		win(models.Team1, 4), // 5x5
		win(models.Team1, 2), // 7x5
	}

	buchuda, buchudaDeRe := Classify(rounds, models.Team1)
	assert.False(t, buchuda)
	assert.False(t, buchudaDeRe)
}

func TestClassifyReversalCheckpointMidGame(t *testing.T) {
	// 0x5 встречается в середине истории, а не в момент завершения.
	rounds := []models.Round{
		win(models.Team1, 4), // 4x0
		win(models.Team1, 1), // 5x0 — checkpoint for team2
		win(models.Team2, 2), // 5x2
		win(models.Team2, 4), // 5x6
	}

	buchuda, buchudaDeRe := Classify(rounds, models.Team2)
	assert.False(t, buchuda)
	assert.True(t, buchudaDeRe)
}

func TestClassifyOrdinaryWin(t *testing.T) {
	rounds := []models.Round{
		win(models.Team1, 2), // 2x0
		win(models.Team2, 4), // 2x4
		win(models.Team1, 4), // 6x4
	}

	buchuda, buchudaDeRe := Classify(rounds, models.Team1)
	assert.False(t, buchuda)
	assert.False(t, buchudaDeRe)
}

func TestClassifyFlagsAreMutuallyExclusive(t *testing.T) {
	histories := [][]models.Round{
		{win(models.Team1, 4), win(models.Team1, 2)},
		{win(models.Team2, 5), win(models.Team1, 4), win(models.Team1, 3)},
		{win(models.Team1, 2), win(models.Team2, 4), win(models.Team1, 4)},
		{win(models.Team2, 4), win(models.Team2, 2)},
	}

	for _, rounds := range histories {
		team1, team2 := Totals(rounds)
		winner := models.Team1
		if team2 > team1 {
			winner = models.Team2
		}
		buchuda, buchudaDeRe := Classify(rounds, winner)
		assert.False(t, buchuda && buchudaDeRe,
			"a game can never be buchuda and buchuda de ré at once")
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	rounds := []models.Round{
		win(models.Team2, 5),
		win(models.Team1, 4),
		win(models.Team1, 3),
	}

	b1, r1 := Classify(rounds, models.Team1)
	b2, r2 := Classify(rounds, models.Team1)
	assert.Equal(t, b1, b2)
	assert.Equal(t, r1, r2)
}
