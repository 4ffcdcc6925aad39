package scoring

import "github.com/pedrohrm/domino-league/models"

// Classify inspects a completed round history and reports the two
// special-victory designations:
//
//   - buchuda: the losing team finished the whole game at zero;
//   - buchuda de ré: at some prefix of the history the eventual winner
//     was trailing exactly 0–5 and still went on to win.
//
// The reversal check needs the running totals after each round, not the
// endpoints: the 0–5 checkpoint is a historical state. The two flags
// are mutually exclusive by construction (a reversal implies the loser
// scored), but they are kept as independent booleans on the game
// record.
//
// Runs exactly once, at the moment the game finishes; the persisted
// flags are never recomputed afterwards.
func Classify(rounds []models.Round, winner models.Team) (buchuda, buchudaDeRe bool) {
	team1, team2 := Totals(rounds)

	winnerScore, loserScore := team1, team2
	if winner == models.Team2 {
		winnerScore, loserScore = team2, team1
	}

	buchuda = winnerScore >= WinningScore && loserScore == 0

	var run1, run2 int
	for _, r := range rounds {
		switch r.WinningTeam {
		case models.Team1:
			run1 += r.Points
		case models.Team2:
			run2 += r.Points
		}

		if winner == models.Team1 && run1 == 0 && run2 == 5 {
			buchudaDeRe = true
		}
		if winner == models.Team2 && run2 == 0 && run1 == 5 {
			buchudaDeRe = true
		}
	}

	return buchuda, buchudaDeRe
}
