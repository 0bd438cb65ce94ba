package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name conflict")
	// ErrMemberUnavailable covers both a missing user and a user already on a team.
	ErrMemberUnavailable = errors.New("user not found or already in a team")
)

// scoreLockKey is the advisory lock id held by every score recalculation.
const scoreLockKey = 7_120_341

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	// UpdateScores overwrites the stored score of every team in scores.
	UpdateScores(ctx context.Context, exec SQLExecutor, scores map[int]float64) error
	// LockScores serialises recalculations for the rest of the transaction.
	LockScores(ctx context.Context, exec SQLExecutor) error
	AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	ListMembers(ctx context.Context, exec SQLExecutor, teamID int) ([]models.User, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

var teamConstraints = map[string]error{
	"teams_name_key": ErrTeamNameConflict,
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, score, logo_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, team.Name, team.Score, team.LogoKey).
		Scan(&team.ID, &team.CreatedAt)
	return constraintError(err, teamConstraints)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `
		SELECT id, name, score, logo_key, created_at
		FROM teams
		WHERE id = $1`

	var team models.Team
	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Score,
		&team.LogoKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return &team, nil
}

func (r *postgresTeamRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]models.Team, error) {
	query := `
		SELECT id, name, score, logo_key, created_at
		FROM teams
		ORDER BY id ASC`

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Score, &team.LogoKey, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `UPDATE teams SET name = $1, logo_key = $2 WHERE id = $3`

	result, err := getExecutor(r.db, exec).ExecContext(ctx, query, team.Name, team.LogoKey, team.ID)
	if err != nil {
		return constraintError(err, teamConstraints)
	}
	return checkRowsAffected(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateScores(ctx context.Context, exec SQLExecutor, scores map[int]float64) error {
	if len(scores) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(scores))
	values := make([]float64, 0, len(scores))
	for id, score := range scores {
		ids = append(ids, int64(id))
		values = append(values, score)
	}

	query := `
		UPDATE teams AS t SET score = v.score
		FROM UNNEST($1::int[], $2::double precision[]) AS v(id, score)
		WHERE t.id = v.id`

	if _, err := getExecutor(r.db, exec).ExecContext(ctx, query, pq.Array(ids), pq.Array(values)); err != nil {
		return fmt.Errorf("failed to update team scores: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) LockScores(ctx context.Context, exec SQLExecutor) error {
	if _, err := getExecutor(r.db, exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, scoreLockKey); err != nil {
		return fmt.Errorf("failed to acquire score lock: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	query := `UPDATE users SET team_id = $1 WHERE id = $2 AND team_id IS NULL`

	result, err := getExecutor(r.db, exec).ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return constraintError(err, map[string]error{"users_team_id_fkey": ErrTeamNotFound})
	}
	return checkRowsAffected(result, ErrMemberUnavailable)
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, exec SQLExecutor, teamID int) ([]models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE team_id = $1
		ORDER BY username ASC`
	return listUsers(ctx, getExecutor(r.db, exec), query, teamID)
}

func (r *postgresTeamRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	var n int
	if err := getExecutor(r.db, exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
