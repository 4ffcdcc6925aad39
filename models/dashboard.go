package models

type DashboardStats struct {
	PlayersTotal       int `json:"players_total"`
	CompetitionsTotal  int `json:"competitions_total"`
	ActiveCompetitions int `json:"active_competitions"`
	GamesTotal         int `json:"games_total"`
	GamesFinished      int `json:"games_finished"`
	Buchudas           int `json:"buchudas"`
	BuchudasDeRe       int `json:"buchudas_de_re"`
}
