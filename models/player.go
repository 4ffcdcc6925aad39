package models

import "time"

// Player представляет участника лиги. Игроки принадлежат аккаунту,
// который их создал, и помечаются неактивными вместо удаления, если
// на них уже ссылаются сыгранные партии.
type Player struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Contact   *string   `json:"contact,omitempty" db:"contact"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`

	// Заполняется сервисом статистики, не мапится напрямую.
	Stats *PlayerStats `json:"stats,omitempty" db:"-"`
}

// PlayerStats — накопленная статистика игрока по завершённым партиям.
type PlayerStats struct {
	Wins              int `json:"wins"`
	Losses            int `json:"losses"`
	Buchudas          int `json:"buchudas"`
	BuchudasTaken     int `json:"buchudas_taken"`
	BuchudasDeRe      int `json:"buchudas_de_re"`
	BuchudasDeReTaken int `json:"buchudas_de_re_taken"`
}
