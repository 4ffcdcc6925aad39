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
	ErrCompetitionNotFound       = errors.New("competition not found")
	ErrCompetitionPlayerConflict = errors.New("player already associated with competition")
	ErrCompetitionPlayerNotFound = errors.New("player is not associated with competition")
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	ListByOwner(ctx context.Context, userID int) ([]*models.Competition, error)
	Update(ctx context.Context, competition *models.Competition) error
	UpdateStatus(ctx context.Context, id int, status models.CompetitionStatus) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
	// SaveChampionSummary записывает итоги и статус finished одним UPDATE.
	SaveChampionSummary(ctx context.Context, competition *models.Competition) error
	Delete(ctx context.Context, id int) error

	AddPlayer(ctx context.Context, competitionID, playerID int) error
	RemovePlayer(ctx context.Context, competitionID, playerID int) error
	ListPlayers(ctx context.Context, competitionID int) ([]*models.Player, error)
	CountByOwner(ctx context.Context, userID int, status *models.CompetitionStatus) (int, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

const competitionColumns = `
	id, public_id, user_id, name, description, start_date, status,
	logo_key, best_player_id, best_team_player1_id, best_team_player2_id,
	player_scores, team_scores, created_at, finished_at`

func scanCompetition(row interface{ Scan(...interface{}) error }) (*models.Competition, error) {
	c := &models.Competition{}
	var playerScores, teamScores []byte

	err := row.Scan(
		&c.ID,
		&c.PublicID,
		&c.UserID,
		&c.Name,
		&c.Description,
		&c.StartDate,
		&c.Status,
		&c.LogoKey,
		&c.BestPlayerID,
		&c.BestTeamPlayer1ID,
		&c.BestTeamPlayer2ID,
		&playerScores,
		&teamScores,
		&c.CreatedAt,
		&c.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(playerScores) > 0 {
		if err := json.Unmarshal(playerScores, &c.PlayerScores); err != nil {
			return nil, fmt.Errorf("failed to decode player_scores for competition %d: %w", c.ID, err)
		}
	}
	if len(teamScores) > 0 {
		if err := json.Unmarshal(teamScores, &c.TeamScores); err != nil {
			return nil, fmt.Errorf("failed to decode team_scores for competition %d: %w", c.ID, err)
		}
	}
	return c, nil
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	query := `
		INSERT INTO competitions (public_id, user_id, name, description, start_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		competition.PublicID,
		competition.UserID,
		competition.Name,
		competition.Description,
		competition.StartDate,
		competition.Status,
	).Scan(&competition.ID, &competition.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert competition: %w", err)
	}
	return nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`

	competition, err := scanCompetition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to scan competition %d: %w", id, err)
	}
	return competition, nil
}

func (r *postgresCompetitionRepository) ListByOwner(ctx context.Context, userID int) ([]*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions for user %d: %w", userID, err)
	}
	defer rows.Close()

	competitions := []*models.Competition{}
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", err)
		}
		competitions = append(competitions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("competition rows iteration error: %w", err)
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, competition *models.Competition) error {
	query := `
		UPDATE competitions
		SET name = $1, description = $2, start_date = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		competition.Name,
		competition.Description,
		competition.StartDate,
		competition.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update competition %d: %w", competition.ID, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatus(ctx context.Context, id int, status models.CompetitionStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE competitions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update competition %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE competitions SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update competition %d logo: %w", id, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) SaveChampionSummary(ctx context.Context, competition *models.Competition) error {
	playerScores, err := json.Marshal(competition.PlayerScores)
	if err != nil {
		return fmt.Errorf("failed to encode player_scores: %w", err)
	}
	teamScores, err := json.Marshal(competition.TeamScores)
	if err != nil {
		return fmt.Errorf("failed to encode team_scores: %w", err)
	}

	query := `
		UPDATE competitions
		SET status = $1,
		    best_player_id = $2,
		    best_team_player1_id = $3,
		    best_team_player2_id = $4,
		    player_scores = $5,
		    team_scores = $6,
		    finished_at = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		competition.Status,
		competition.BestPlayerID,
		competition.BestTeamPlayer1ID,
		competition.BestTeamPlayer2ID,
		playerScores,
		teamScores,
		competition.FinishedAt,
		competition.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save champion summary for competition %d: %w", competition.ID, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM competitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete competition %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) AddPlayer(ctx context.Context, competitionID, playerID int) error {
	query := `
		INSERT INTO competition_players (competition_id, player_id)
		VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, competitionID, playerID)
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return ErrCompetitionPlayerConflict
		}
		if isPQError(err, pqForeignKeyViolation) {
			return ErrCompetitionNotFound
		}
		return fmt.Errorf("failed to add player %d to competition %d: %w", playerID, competitionID, err)
	}
	return nil
}

func (r *postgresCompetitionRepository) RemovePlayer(ctx context.Context, competitionID, playerID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM competition_players WHERE competition_id = $1 AND player_id = $2`,
		competitionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player %d from competition %d: %w", playerID, competitionID, err)
	}
	return checkAffectedRows(result, ErrCompetitionPlayerNotFound)
}

func (r *postgresCompetitionRepository) ListPlayers(ctx context.Context, competitionID int) ([]*models.Player, error) {
	query := `
		SELECT p.id, p.user_id, p.name, p.contact, p.active, p.avatar_key, p.created_at
		FROM players p
		JOIN competition_players cp ON cp.player_id = p.id
		WHERE cp.competition_id = $1
		ORDER BY p.name`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

func (r *postgresCompetitionRepository) CountByOwner(ctx context.Context, userID int, status *models.CompetitionStatus) (int, error) {
	query := `SELECT COUNT(*) FROM competitions WHERE user_id = $1`
	args := []interface{}{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count competitions for user %d: %w", userID, err)
	}
	return count, nil
}
