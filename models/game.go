package models

import "time"

// GameStatus представляет статусы партии, соответствующие ENUM в БД.
type GameStatus string

const (
	GameStatusPending    GameStatus = "pending"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinished   GameStatus = "finished"
)

// Team identifies one side of a game. TeamNone marks a drawn round.
type Team int

const (
	TeamNone Team = 0
	Team1    Team = 1
	Team2    Team = 2
)

// ResultType is the closed set of round outcomes (batidas).
type ResultType string

const (
	ResultSimple  ResultType = "simple"  // batida simples, 1 ponto
	ResultDouble  ResultType = "double"  // batida de carroça, 2 pontos
	ResultLa      ResultType = "la"      // batida lá e lô, 3 pontos
	ResultCruzada ResultType = "cruzada" // batida cruzada, 4 pontos
	ResultDraw    ResultType = "draw"    // empate
)

// Round is one scored sub-match inside a game. The round list is
// append-only and totally ordered by Number.
type Round struct {
	Number        int        `json:"number"`
	Type          ResultType `json:"type"`
	WinningTeam   Team       `json:"winning_team"` // TeamNone for draws
	Points        int        `json:"points"`
	HasExtraPoint bool       `json:"has_extra_point"`
}

// Game — партия между двумя дуплами до шести очков.
// После перехода в статус finished история раундов, счёт, победитель
// и флаги особых побед неизменяемы.
type Game struct {
	ID            int    `json:"id" db:"id"`
	PublicID      string `json:"public_id" db:"public_id"`
	CompetitionID int    `json:"competition_id" db:"competition_id"`

	Team1Player1ID int  `json:"team1_player1_id" db:"team1_player1_id"`
	Team1Player2ID *int `json:"team1_player2_id,omitempty" db:"team1_player2_id"`
	Team2Player1ID int  `json:"team2_player1_id" db:"team2_player1_id"`
	Team2Player2ID *int `json:"team2_player2_id,omitempty" db:"team2_player2_id"`

	Status        GameStatus `json:"status" db:"status"`
	Rounds        []Round    `json:"rounds" db:"rounds"`
	Team1Score    int        `json:"team1_score" db:"team1_score"`
	Team2Score    int        `json:"team2_score" db:"team2_score"`
	WinnerTeam    *Team      `json:"winner_team,omitempty" db:"winner_team"`
	IsBuchuda     bool       `json:"is_buchuda" db:"is_buchuda"`
	IsBuchudaDeRe bool       `json:"is_buchuda_de_re" db:"is_buchuda_de_re"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`

	// Опциональные связанные сущности (не мапятся напрямую).
	Team1Players []Player `json:"team1_players,omitempty" db:"-"`
	Team2Players []Player `json:"team2_players,omitempty" db:"-"`
}

// TeamPlayerIDs returns the player ids of the given side, skipping the
// optional second slot when the pair plays short-handed.
func (g *Game) TeamPlayerIDs(t Team) []int {
	switch t {
	case Team1:
		ids := []int{g.Team1Player1ID}
		if g.Team1Player2ID != nil {
			ids = append(ids, *g.Team1Player2ID)
		}
		return ids
	case Team2:
		ids := []int{g.Team2Player1ID}
		if g.Team2Player2ID != nil {
			ids = append(ids, *g.Team2Player2ID)
		}
		return ids
	default:
		return nil
	}
}

// PlayerIDs returns every distinct player id referenced by the game.
func (g *Game) PlayerIDs() []int {
	return append(g.TeamPlayerIDs(Team1), g.TeamPlayerIDs(Team2)...)
}
