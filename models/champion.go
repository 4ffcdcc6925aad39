package models

// ChampionSummary is the aggregation result of a finished competition:
// the best individual player, the best pair, and the full win-credit
// maps used by the statistics views.
type ChampionSummary struct {
	BestPlayer     *Player `json:"best_player,omitempty"`
	BestPlayerWins int     `json:"best_player_wins"`

	BestTeam     []Player `json:"best_team,omitempty"` // two entries, canonical order
	BestTeamWins int      `json:"best_team_wins"`

	// PlayerScores maps player id to individual win credits,
	// TeamScores maps the canonical pair key ("smallerID-biggerID")
	// to pair win credits.
	PlayerScores map[int]int    `json:"player_scores"`
	TeamScores   map[string]int `json:"team_scores"`
}
