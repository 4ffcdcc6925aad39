// Package scoring implements the domino match rules: round evaluation
// with the carry-over point, game score accumulation up to the winning
// threshold, special-victory classification (buchuda and buchuda de ré)
// and competition-level champion aggregation. All functions here are
// pure transformations over the models aggregates; persistence and
// locking belong to the services layer.
package scoring

import (
	"errors"
	"fmt"

	"github.com/pedrohrm/domino-league/models"
)

var (
	ErrInvalidResultType = errors.New("invalid round result type")
	ErrMissingWinner     = errors.New("winning team is required for a non-draw round")
	ErrInvalidWinner     = errors.New("winning team must be 1 or 2")
	ErrDrawWithWinner    = errors.New("a drawn round cannot have a winning team")
)

// basePoints — фиксированная таблица очков за батиду.
var basePoints = map[models.ResultType]int{
	models.ResultSimple:  1,
	models.ResultDouble:  2,
	models.ResultLa:      3,
	models.ResultCruzada: 4,
	models.ResultDraw:    0,
}

// BasePoints returns the base value of a result type before any
// carry-over adjustment.
func BasePoints(t models.ResultType) (int, bool) {
	pts, ok := basePoints[t]
	return pts, ok
}

// EvaluateRound converts a declared round outcome into a Round record.
// prev is the immediately preceding round of the same game, nil for the
// first round. When prev was a draw and the current round is not, the
// winner takes one carried-over extra point; consecutive draws do not
// stack the bonus, and draws themselves never receive it.
//
// The returned Round has no Number yet; the accumulator assigns it when
// the round is appended to the game history.
func EvaluateRound(prev *models.Round, resultType models.ResultType, winningTeam models.Team) (models.Round, error) {
	base, ok := basePoints[resultType]
	if !ok {
		return models.Round{}, fmt.Errorf("%w: %q", ErrInvalidResultType, resultType)
	}

	if resultType == models.ResultDraw {
		if winningTeam != models.TeamNone {
			return models.Round{}, ErrDrawWithWinner
		}
		return models.Round{Type: resultType, WinningTeam: models.TeamNone}, nil
	}

	switch winningTeam {
	case models.Team1, models.Team2:
	case models.TeamNone:
		return models.Round{}, ErrMissingWinner
	default:
		return models.Round{}, fmt.Errorf("%w: got %d", ErrInvalidWinner, winningTeam)
	}

	points := base
	hasExtra := prev != nil && prev.Type == models.ResultDraw
	if hasExtra {
		points++
	}

	return models.Round{
		Type:          resultType,
		WinningTeam:   winningTeam,
		Points:        points,
		HasExtraPoint: hasExtra,
	}, nil
}
