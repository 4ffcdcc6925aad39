package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pedrohrm/domino-league/models"
)

var (
	ErrNoGames        = errors.New("competition has no games")
	ErrUnfinishedGame = errors.New("competition has an unfinished game")
)

// TeamKey returns the canonical identifier of a pair: the two player
// ids sorted ascending and joined with a dash, so that {A,B} and {B,A}
// name the same team across games.
func TeamKey(p1, p2 int) string {
	if p2 < p1 {
		p1, p2 = p2, p1
	}
	return fmt.Sprintf("%d-%d", p1, p2)
}

type pairCredit struct {
	p1, p2 int // canonical order, p1 < p2
	wins   int
}

// Aggregate tallies win credits across the finished games of a
// competition and produces the champion summary: every member of a
// winning side earns one individual credit, and the winning pair (when
// both seats are filled) earns one pair credit under its canonical key.
//
// Tie-breaks are deterministic: higher win count first, then more total
// points scored by the candidate's teams over the whole competition,
// then the lexicographically smallest lower-cased name (players) or
// canonical pair (teams). Re-running over the same game set always
// yields an identical summary.
func Aggregate(games []*models.Game, players map[int]*models.Player) (*models.ChampionSummary, error) {
	if len(games) == 0 {
		return nil, ErrNoGames
	}

	playerWins := make(map[int]int)
	teamWins := make(map[string]*pairCredit)
	pointsScored := make(map[int]int)

	for _, g := range games {
		if g.Status != models.GameStatusFinished || g.WinnerTeam == nil {
			return nil, fmt.Errorf("%w: game %d", ErrUnfinishedGame, g.ID)
		}

		// Очки дуплы засчитываются каждому её игроку — для тай-брейка.
		for _, id := range g.TeamPlayerIDs(models.Team1) {
			pointsScored[id] += g.Team1Score
		}
		for _, id := range g.TeamPlayerIDs(models.Team2) {
			pointsScored[id] += g.Team2Score
		}

		winnerIDs := g.TeamPlayerIDs(*g.WinnerTeam)
		for _, id := range winnerIDs {
			playerWins[id]++
		}
		if len(winnerIDs) == 2 {
			key := TeamKey(winnerIDs[0], winnerIDs[1])
			credit, ok := teamWins[key]
			if !ok {
				a, b := winnerIDs[0], winnerIDs[1]
				if b < a {
					a, b = b, a
				}
				credit = &pairCredit{p1: a, p2: b}
				teamWins[key] = credit
			}
			credit.wins++
		}
	}

	summary := &models.ChampionSummary{
		PlayerScores: playerWins,
		TeamScores:   make(map[string]int, len(teamWins)),
	}
	for key, credit := range teamWins {
		summary.TeamScores[key] = credit.wins
	}

	if id, wins, ok := bestPlayer(playerWins, pointsScored, players); ok {
		summary.BestPlayerWins = wins
		if p, ok := players[id]; ok {
			summary.BestPlayer = p
		} else {
			summary.BestPlayer = &models.Player{ID: id}
		}
	}

	if credit, ok := bestTeam(teamWins, pointsScored); ok {
		summary.BestTeamWins = credit.wins
		for _, id := range []int{credit.p1, credit.p2} {
			if p, ok := players[id]; ok {
				summary.BestTeam = append(summary.BestTeam, *p)
			} else {
				summary.BestTeam = append(summary.BestTeam, models.Player{ID: id})
			}
		}
	}

	return summary, nil
}

func bestPlayer(wins, pointsScored map[int]int, players map[int]*models.Player) (int, int, bool) {
	if len(wins) == 0 {
		return 0, 0, false
	}

	ids := make([]int, 0, len(wins))
	for id := range wins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if wins[a] != wins[b] {
			return wins[a] > wins[b]
		}
		if pointsScored[a] != pointsScored[b] {
			return pointsScored[a] > pointsScored[b]
		}
		na, nb := playerName(players, a), playerName(players, b)
		if na != nb {
			return na < nb
		}
		return a < b
	})

	return ids[0], wins[ids[0]], true
}

func bestTeam(teamWins map[string]*pairCredit, pointsScored map[int]int) (*pairCredit, bool) {
	if len(teamWins) == 0 {
		return nil, false
	}

	credits := make([]*pairCredit, 0, len(teamWins))
	for _, c := range teamWins {
		credits = append(credits, c)
	}
	sort.Slice(credits, func(i, j int) bool {
		a, b := credits[i], credits[j]
		if a.wins != b.wins {
			return a.wins > b.wins
		}
		pa := pointsScored[a.p1] + pointsScored[a.p2]
		pb := pointsScored[b.p1] + pointsScored[b.p2]
		if pa != pb {
			return pa > pb
		}
		if a.p1 != b.p1 {
			return a.p1 < b.p1
		}
		return a.p2 < b.p2
	})

	return credits[0], true
}

func playerName(players map[int]*models.Player, id int) string {
	if p, ok := players[id]; ok {
		return strings.ToLower(p.Name)
	}
	return ""
}
