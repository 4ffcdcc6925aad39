package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrPlayerNameRequired      = errors.New("player name is required")
	ErrCompetitionNameRequired = errors.New("competition name is required")
	ErrPlayerInactive          = errors.New("player is inactive")
	ErrTeamsSharePlayer        = errors.New("a player cannot be on both teams")
	ErrPlayerNotInCompetition  = errors.New("player is not part of the competition roster")
	ErrNotEnoughPlayers        = errors.New("competition needs at least 4 active players to start")
	ErrGamesUnfinished         = errors.New("finish all games before ending the competition")
	ErrCompetitionHasNoGames   = errors.New("competition has no finished games to aggregate")
	ErrCompetitionNotEditable  = errors.New("finished competition cannot be modified")
	ErrCompetitionNotStarted   = errors.New("competition is not in progress")
	ErrGameAlreadyFinished     = errors.New("finished game cannot be modified")

	// Ошибки конфликтов
	ErrEmailConflict              = errors.New("email address is already in use")
	ErrPlayerAlreadyInCompetition = errors.New("player is already part of the competition")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей (дублируют ErrNotFound, но дают больше контекста)
	ErrUserNotFound        = errors.New("user not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrGameNotFound        = errors.New("game not found")
)
