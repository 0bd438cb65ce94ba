package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-tracker/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchTeamInvalid    = errors.New("match team conflict or invalid")
	ErrMatchScoreInvalid   = errors.New("match score out of range")
	ErrMatchSameTeam       = errors.New("match teams must differ")
	ErrMatchAlreadyDecided = errors.New("match already approved")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// ListApproved returns approved matches in replay order: timestamp, then id.
	ListApproved(ctx context.Context, exec SQLExecutor) ([]models.Match, error)
	// ListPending returns unapproved matches, optionally only those where
	// teamTwoID is the receiving side.
	ListPending(ctx context.Context, exec SQLExecutor, teamTwoID *int) ([]models.Match, error)
	ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]models.Match, error)
	// CountOlderPending counts unapproved matches older than before in which
	// teamID still has to approve as team two.
	CountOlderPending(ctx context.Context, exec SQLExecutor, teamID int, before time.Time) (int, error)
	SetApproved(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	Count(ctx context.Context, exec SQLExecutor, approved *bool) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

var matchConstraints = map[string]error{
	"matches_team_one_id_fkey":     ErrMatchTeamInvalid,
	"matches_team_two_id_fkey":     ErrMatchTeamInvalid,
	"matches_team_one_score_check": ErrMatchScoreInvalid,
	"matches_team_two_score_check": ErrMatchScoreInvalid,
	"matches_distinct_teams":       ErrMatchSameTeam,
}

const matchColumns = `id, team_one_id, team_two_id, team_one_score, team_two_score, timestamp, approved`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (team_one_id, team_two_id, team_one_score, team_two_score, timestamp, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if match.Timestamp.IsZero() {
		match.Timestamp = time.Now().UTC()
	}

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query,
		match.TeamOneID,
		match.TeamTwoID,
		match.TeamOneScore,
		match.TeamTwoScore,
		match.Timestamp,
		match.Approved,
	).Scan(&match.ID)
	return constraintError(err, matchConstraints)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	var match models.Match
	err := scanMatch(getExecutor(r.db, exec).QueryRowContext(ctx, query, id), &match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return &match, nil
}

func (r *postgresMatchRepository) ListApproved(ctx context.Context, exec SQLExecutor) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE approved = TRUE
		ORDER BY timestamp ASC, id ASC`
	return r.list(ctx, exec, query)
}

func (r *postgresMatchRepository) ListPending(ctx context.Context, exec SQLExecutor, teamTwoID *int) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + `
		FROM matches
		WHERE approved = FALSE`)

	args := []interface{}{}
	placeholderIndex := 1

	if teamTwoID != nil {
		queryBuilder.WriteString(" AND team_two_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *teamTwoID)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY timestamp ASC, id ASC")

	return r.list(ctx, exec, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE team_one_id = $1 OR team_two_id = $1
		ORDER BY timestamp DESC, id DESC`
	return r.list(ctx, exec, query, teamID)
}

func (r *postgresMatchRepository) CountOlderPending(ctx context.Context, exec SQLExecutor, teamID int, before time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM matches
		WHERE team_two_id = $1 AND approved = FALSE AND timestamp < $2`

	var n int
	if err := getExecutor(r.db, exec).QueryRowContext(ctx, query, teamID, before).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending matches: %w", err)
	}
	return n, nil
}

func (r *postgresMatchRepository) SetApproved(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx,
		`UPDATE matches SET approved = TRUE WHERE id = $1 AND approved = FALSE`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrMatchAlreadyDecided)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Count(ctx context.Context, exec SQLExecutor, approved *bool) (int, error) {
	query := `SELECT COUNT(*) FROM matches`
	args := []interface{}{}
	if approved != nil {
		query += ` WHERE approved = $1`
		args = append(args, *approved)
	}

	var n int
	if err := getExecutor(r.db, exec).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var match models.Match
		if err := scanMatch(rows, &match); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner, match *models.Match) error {
	return row.Scan(
		&match.ID,
		&match.TeamOneID,
		&match.TeamTwoID,
		&match.TeamOneScore,
		&match.TeamTwoScore,
		&match.Timestamp,
		&match.Approved,
	)
}
