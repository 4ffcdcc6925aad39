package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pedrohrm/domino-league/models"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGamePlayerInvalid = errors.New("game references an unknown player or competition")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Game, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Game, error)
	ListByPlayer(ctx context.Context, playerID int) ([]*models.Game, error)
	// Save перезаписывает весь изменяемый агрегат — историю раундов,
	// счёт, статус, победителя и флаги — одним UPDATE.
	Save(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id int) error

	CountByOwner(ctx context.Context, userID int, status *models.GameStatus) (int, error)
	CountSpecialByOwner(ctx context.Context, userID int) (buchudas, buchudasDeRe int, err error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `
	id, public_id, competition_id,
	team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id,
	status, rounds, team1_score, team2_score, winner_team,
	is_buchuda, is_buchuda_de_re, created_at, finished_at`

func scanGame(row interface{ Scan(...interface{}) error }) (*models.Game, error) {
	g := &models.Game{}
	var rounds []byte

	err := row.Scan(
		&g.ID,
		&g.PublicID,
		&g.CompetitionID,
		&g.Team1Player1ID,
		&g.Team1Player2ID,
		&g.Team2Player1ID,
		&g.Team2Player2ID,
		&g.Status,
		&rounds,
		&g.Team1Score,
		&g.Team2Score,
		&g.WinnerTeam,
		&g.IsBuchuda,
		&g.IsBuchudaDeRe,
		&g.CreatedAt,
		&g.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(rounds) > 0 {
		if err := json.Unmarshal(rounds, &g.Rounds); err != nil {
			return nil, fmt.Errorf("failed to decode rounds for game %d: %w", g.ID, err)
		}
	}
	return g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	rounds, err := json.Marshal(game.Rounds)
	if err != nil {
		return fmt.Errorf("failed to encode rounds: %w", err)
	}

	query := `
		INSERT INTO games
			(public_id, competition_id,
			 team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id,
			 status, rounds, team1_score, team2_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		game.PublicID,
		game.CompetitionID,
		game.Team1Player1ID,
		game.Team1Player2ID,
		game.Team2Player1ID,
		game.Team2Player2ID,
		game.Status,
		rounds,
		game.Team1Score,
		game.Team2Score,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return ErrGamePlayerInvalid
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE public_id = $1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %q: %w", publicID, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE competition_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	games := []*models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("game rows iteration error: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) ListByPlayer(ctx context.Context, playerID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games
		WHERE team1_player1_id = $1 OR team1_player2_id = $1
		   OR team2_player1_id = $1 OR team2_player2_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for player %d: %w", playerID, err)
	}
	defer rows.Close()

	games := []*models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("game rows iteration error: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) Save(ctx context.Context, game *models.Game) error {
	rounds, err := json.Marshal(game.Rounds)
	if err != nil {
		return fmt.Errorf("failed to encode rounds: %w", err)
	}

	query := `
		UPDATE games
		SET status = $1,
		    rounds = $2,
		    team1_score = $3,
		    team2_score = $4,
		    winner_team = $5,
		    is_buchuda = $6,
		    is_buchuda_de_re = $7,
		    finished_at = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		game.Status,
		rounds,
		game.Team1Score,
		game.Team2Score,
		game.WinnerTeam,
		game.IsBuchuda,
		game.IsBuchudaDeRe,
		game.FinishedAt,
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %d: %w", game.ID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) CountByOwner(ctx context.Context, userID int, status *models.GameStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM games g
		JOIN competitions c ON c.id = g.competition_id
		WHERE c.user_id = $1`
	args := []interface{}{userID}
	if status != nil {
		query += ` AND g.status = $2`
		args = append(args, *status)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *postgresGameRepository) CountSpecialByOwner(ctx context.Context, userID int) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE g.is_buchuda),
			COUNT(*) FILTER (WHERE g.is_buchuda_de_re)
		FROM games g
		JOIN competitions c ON c.id = g.competition_id
		WHERE c.user_id = $1 AND g.status = 'finished'`

	var buchudas, buchudasDeRe int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&buchudas, &buchudasDeRe); err != nil {
		return 0, 0, fmt.Errorf("failed to count special victories for user %d: %w", userID, err)
	}
	return buchudas, buchudasDeRe, nil
}
