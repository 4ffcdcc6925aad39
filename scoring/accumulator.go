package scoring

import (
	"errors"
	"time"

	"github.com/pedrohrm/domino-league/models"
)

// WinningScore — порог победы: партия заканчивается, как только одна из
// дупл набирает шесть или больше очков.
const WinningScore = 6

var (
	ErrGameNotStartable  = errors.New("game cannot be started from its current status")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrGameFinished      = errors.New("game is already finished")

	// ErrInconsistentScore marks a history where both teams sit at the
	// winning threshold with equal totals. Valid point values (≤4, one
	// team per round) cannot produce it, so it is raised loudly instead
	// of guessing a winner.
	ErrInconsistentScore = errors.New("both teams reached the winning score with equal totals")
)

// StartGame moves a pending game into play. No transition skips a state.
func StartGame(g *models.Game) error {
	switch g.Status {
	case models.GameStatusPending:
		g.Status = models.GameStatusInProgress
		return nil
	case models.GameStatusFinished:
		return ErrGameFinished
	default:
		return ErrGameNotStartable
	}
}

// Totals folds a round history into cumulative team scores. Draws
// contribute zero to both sides.
func Totals(rounds []models.Round) (team1, team2 int) {
	for _, r := range rounds {
		switch r.WinningTeam {
		case models.Team1:
			team1 += r.Points
		case models.Team2:
			team2 += r.Points
		}
	}
	return team1, team2
}

// ApplyRound evaluates a declared outcome against the game history,
// appends the resulting round and recomputes the cumulative scores.
// When a team reaches the winning threshold the game is finished in the
// same update: winner, final scores and the special-victory flags are
// all set before the function returns, so the caller can persist the
// aggregate with a single write.
//
// On any error the game is left exactly as it was.
func ApplyRound(g *models.Game, resultType models.ResultType, winningTeam models.Team) (models.Round, error) {
	switch g.Status {
	case models.GameStatusInProgress:
	case models.GameStatusFinished:
		return models.Round{}, ErrGameFinished
	default:
		return models.Round{}, ErrGameNotInProgress
	}

	var prev *models.Round
	if n := len(g.Rounds); n > 0 {
		prev = &g.Rounds[n-1]
	}

	round, err := EvaluateRound(prev, resultType, winningTeam)
	if err != nil {
		return models.Round{}, err
	}
	round.Number = len(g.Rounds) + 1

	g.Rounds = append(g.Rounds, round)
	g.Team1Score, g.Team2Score = Totals(g.Rounds)

	if g.Team1Score >= WinningScore || g.Team2Score >= WinningScore {
		if err := finishGame(g); err != nil {
			// Откатываем раунд, чтобы агрегат остался согласованным.
			g.Rounds = g.Rounds[:len(g.Rounds)-1]
			g.Team1Score, g.Team2Score = Totals(g.Rounds)
			return models.Round{}, err
		}
	}

	return round, nil
}

// finishGame closes the game and runs the classifier exactly once over
// the complete round history. If both teams are somehow at or above the
// threshold, the higher score wins; exactly equal totals are an
// invariant violation.
func finishGame(g *models.Game) error {
	var winner models.Team
	switch {
	case g.Team1Score >= WinningScore && g.Team2Score >= WinningScore:
		if g.Team1Score == g.Team2Score {
			return ErrInconsistentScore
		}
		winner = models.Team1
		if g.Team2Score > g.Team1Score {
			winner = models.Team2
		}
	case g.Team1Score >= WinningScore:
		winner = models.Team1
	default:
		winner = models.Team2
	}

	buchuda, buchudaDeRe := Classify(g.Rounds, winner)

	now := time.Now().UTC()
	g.Status = models.GameStatusFinished
	g.WinnerTeam = &winner
	g.IsBuchuda = buchuda
	g.IsBuchudaDeRe = buchudaDeRe
	g.FinishedAt = &now
	return nil
}
