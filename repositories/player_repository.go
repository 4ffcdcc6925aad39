package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pedrohrm/domino-league/models"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrPlayerReferenced = errors.New("player is referenced by existing games")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByOwner(ctx context.Context, userID int, includeInactive bool) ([]*models.Player, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	SetActive(ctx context.Context, id int, active bool) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
	Delete(ctx context.Context, id int) error
	CountGamesReferencing(ctx context.Context, id int) (int, error)
	CountByOwner(ctx context.Context, userID int) (int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, user_id, name, contact, active, avatar_key, created_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Contact,
		&p.Active,
		&p.AvatarKey,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (user_id, name, contact, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, active, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.UserID,
		player.Name,
		player.Contact,
	).Scan(&player.ID, &player.Active, &player.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) ListByOwner(ctx context.Context, userID int, includeInactive bool) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1`
	if !includeInactive {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}

	query := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1) ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, intArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list players by ids: %w", err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

func collectPlayers(rows *sql.Rows) ([]*models.Player, error) {
	players := []*models.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("player rows iteration error: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, contact = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, player.Name, player.Contact, player.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", player.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set player %d active=%t: %w", id, active, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET avatar_key = $1 WHERE id = $2`, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update player %d avatar: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return ErrPlayerReferenced
		}
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// CountGamesReferencing сообщает, участвует ли игрок хоть в одной партии:
// от этого зависит, будет ли удаление мягким или жёстким.
func (r *postgresPlayerRepository) CountGamesReferencing(ctx context.Context, id int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM games
		WHERE team1_player1_id = $1 OR team1_player2_id = $1
		   OR team2_player1_id = $1 OR team2_player2_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games for player %d: %w", id, err)
	}
	return count, nil
}

func (r *postgresPlayerRepository) CountByOwner(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE user_id = $1 AND active = TRUE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count players for user %d: %w", userID, err)
	}
	return count, nil
}
