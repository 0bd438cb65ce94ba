package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-tracker/models"
)

var ErrPushTokenNotFound = errors.New("push token not found")

type PushTokenRepository interface {
	// Upsert stores the token for the user; registering the same token twice
	// returns the existing row.
	Upsert(ctx context.Context, exec SQLExecutor, token *models.PushToken) error
	ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]models.PushToken, error)
	Delete(ctx context.Context, exec SQLExecutor, userID, id int) error
}

type postgresPushTokenRepository struct {
	db *sql.DB
}

func NewPostgresPushTokenRepository(db *sql.DB) PushTokenRepository {
	return &postgresPushTokenRepository{db: db}
}

func (r *postgresPushTokenRepository) Upsert(ctx context.Context, exec SQLExecutor, token *models.PushToken) error {
	query := `
		INSERT INTO push_tokens (token, user_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT push_tokens_token_user_key
		DO UPDATE SET token = EXCLUDED.token
		RETURNING id, created_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, token.Token, token.UserID).
		Scan(&token.ID, &token.CreatedAt)
	return constraintError(err, map[string]error{"push_tokens_user_id_fkey": ErrUserNotFound})
}

func (r *postgresPushTokenRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]models.PushToken, error) {
	query := `
		SELECT id, token, user_id, created_at
		FROM push_tokens
		WHERE user_id = $1
		ORDER BY id ASC`

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]models.PushToken, 0)
	for rows.Next() {
		var t models.PushToken
		if err := rows.Scan(&t.ID, &t.Token, &t.UserID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *postgresPushTokenRepository) Delete(ctx context.Context, exec SQLExecutor, userID, id int) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx,
		`DELETE FROM push_tokens WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrPushTokenNotFound)
}
