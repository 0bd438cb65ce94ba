package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-tracker/models"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrUserSessionNotFound  = errors.New("user session not found")
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, exec SQLExecutor, token *models.RefreshToken) error
	GetByUUID(ctx context.Context, exec SQLExecutor, uuid string, userID int) (*models.RefreshToken, error)
	// DeleteByToken consumes a refresh token. It fails with
	// ErrRefreshTokenNotFound when the token was already used.
	DeleteByToken(ctx context.Context, exec SQLExecutor, userID int, token string) error
	DeleteExpired(ctx context.Context, exec SQLExecutor, now time.Time) (int64, error)
}

type UserSessionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, session *models.UserSession) error
	GetByUUID(ctx context.Context, exec SQLExecutor, uuid string) (*models.UserSession, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteExpired(ctx context.Context, exec SQLExecutor, now time.Time) (int64, error)
}

type postgresRefreshTokenRepository struct {
	db *sql.DB
}

func NewPostgresRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &postgresRefreshTokenRepository{db: db}
}

func (r *postgresRefreshTokenRepository) Create(ctx context.Context, exec SQLExecutor, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, uuid, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, token.Token, token.UUID, token.UserID, token.ExpiresAt).
		Scan(&token.ID)
	return constraintError(err, map[string]error{"refresh_tokens_user_id_fkey": ErrUserNotFound})
}

func (r *postgresRefreshTokenRepository) GetByUUID(ctx context.Context, exec SQLExecutor, uuid string, userID int) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, uuid, user_id, expires_at
		FROM refresh_tokens
		WHERE uuid = $1 AND user_id = $2`

	var token models.RefreshToken
	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, uuid, userID).Scan(
		&token.ID,
		&token.Token,
		&token.UUID,
		&token.UserID,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to scan refresh token: %w", err)
	}
	return &token, nil
}

func (r *postgresRefreshTokenRepository) DeleteByToken(ctx context.Context, exec SQLExecutor, userID int, token string) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrRefreshTokenNotFound)
}

func (r *postgresRefreshTokenRepository) DeleteExpired(ctx context.Context, exec SQLExecutor, now time.Time) (int64, error) {
	return deleteExpired(ctx, getExecutor(r.db, exec), "refresh_tokens", now)
}

type postgresUserSessionRepository struct {
	db *sql.DB
}

func NewPostgresUserSessionRepository(db *sql.DB) UserSessionRepository {
	return &postgresUserSessionRepository{db: db}
}

func (r *postgresUserSessionRepository) Create(ctx context.Context, exec SQLExecutor, session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (uuid, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, session.UUID, session.UserID, session.ExpiresAt).
		Scan(&session.ID)
	return constraintError(err, map[string]error{"user_sessions_user_id_fkey": ErrUserNotFound})
}

func (r *postgresUserSessionRepository) GetByUUID(ctx context.Context, exec SQLExecutor, uuid string) (*models.UserSession, error) {
	query := `SELECT id, uuid, user_id, expires_at FROM user_sessions WHERE uuid = $1`

	var session models.UserSession
	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, uuid).Scan(
		&session.ID,
		&session.UUID,
		&session.UserID,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan user session: %w", err)
	}
	return &session, nil
}

func (r *postgresUserSessionRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx, `DELETE FROM user_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrUserSessionNotFound)
}

func (r *postgresUserSessionRepository) DeleteExpired(ctx context.Context, exec SQLExecutor, now time.Time) (int64, error) {
	return deleteExpired(ctx, getExecutor(r.db, exec), "user_sessions", now)
}

// deleteExpired only ever receives one of the fixed table names above.
func deleteExpired(ctx context.Context, exec SQLExecutor, table string, now time.Time) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM `+table+` WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rows from %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
