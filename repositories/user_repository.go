package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-tracker/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserUsernameConflict = errors.New("user username conflict")
	ErrUserTeamInvalid      = errors.New("user team conflict or invalid")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, exec SQLExecutor, username, email string) (bool, error)
	Update(ctx context.Context, exec SQLExecutor, user *models.User) error
	// ListWithoutTeam returns users that can still be added to a team.
	ListWithoutTeam(ctx context.Context, exec SQLExecutor) ([]models.User, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

var userConstraints = map[string]error{
	"users_email_key":    ErrUserEmailConflict,
	"users_username_key": ErrUserUsernameConflict,
	"users_team_id_fkey": ErrUserTeamInvalid,
}

const userColumns = `id, username, email, password_hash, verified, admin, team_id, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, verified, admin, team_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Verified,
		user.Admin,
		user.TeamID,
	).Scan(&user.ID, &user.CreatedAt)
	return constraintError(err, userConstraints)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, exec, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanUser(ctx, exec, query, email)
}

func (r *postgresUserRepository) ExistsByUsernameOrEmail(ctx context.Context, exec SQLExecutor, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR LOWER(email) = LOWER($2))`

	var exists bool
	if err := getExecutor(r.db, exec).QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		UPDATE users SET
			username = $1,
			email = $2,
			password_hash = $3,
			verified = $4,
			admin = $5,
			team_id = $6
		WHERE id = $7`

	result, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Verified,
		user.Admin,
		user.TeamID,
		user.ID,
	)
	if err != nil {
		return constraintError(err, userConstraints)
	}
	return checkRowsAffected(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ListWithoutTeam(ctx context.Context, exec SQLExecutor) ([]models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE team_id IS NULL
		ORDER BY username ASC`
	return listUsers(ctx, getExecutor(r.db, exec), query)
}

func (r *postgresUserRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	var n int
	if err := getExecutor(r.db, exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresUserRepository) scanUser(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := scanUserRow(getExecutor(r.db, exec).QueryRowContext(ctx, query, args...), &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func listUsers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.User, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := scanUserRow(rows, &user); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUserRow(row rowScanner, user *models.User) error {
	var teamID sql.NullInt64
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Verified,
		&user.Admin,
		&teamID,
		&user.CreatedAt,
	)
	if err != nil {
		return err
	}
	if teamID.Valid {
		id := int(teamID.Int64)
		user.TeamID = &id
	}
	return nil
}
