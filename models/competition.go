package models

import "time"

// CompetitionStatus представляет статусы кампеонато, соответствующие ENUM в БД.
// Переходы строго монотонны: pending → in_progress → finished.
type CompetitionStatus string

const (
	CompetitionStatusPending    CompetitionStatus = "pending"
	CompetitionStatusInProgress CompetitionStatus = "in_progress"
	CompetitionStatusFinished   CompetitionStatus = "finished"
)

type Competition struct {
	ID          int               `json:"id" db:"id"`
	PublicID    string            `json:"public_id" db:"public_id"`
	UserID      int               `json:"-" db:"user_id"`
	Name        string            `json:"name" db:"name"`
	Description *string           `json:"description,omitempty" db:"description"`
	StartDate   time.Time         `json:"start_date" db:"start_date"`
	Status      CompetitionStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty" db:"finished_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Итоги, записываемые один раз при завершении кампеонато.
	BestPlayerID      *int           `json:"best_player_id,omitempty" db:"best_player_id"`
	BestTeamPlayer1ID *int           `json:"best_team_player1_id,omitempty" db:"best_team_player1_id"`
	BestTeamPlayer2ID *int           `json:"best_team_player2_id,omitempty" db:"best_team_player2_id"`
	PlayerScores      map[int]int    `json:"player_scores,omitempty" db:"player_scores"`
	TeamScores        map[string]int `json:"team_scores,omitempty" db:"team_scores"`

	// Опциональные связанные сущности (не мапятся напрямую).
	Players []Player `json:"players,omitempty" db:"-"`
	Games   []Game   `json:"games,omitempty" db:"-"`
}

// CompetitionPlayer — связь many-to-many между кампеонато и игроком.
type CompetitionPlayer struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	PlayerID      int       `json:"player_id" db:"player_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
