package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Deehands24/laymen-terms/internal/translation"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SaveSubmission(ctx context.Context, userID int64, text string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO submissions (user_id, submitted_text) VALUES ($1, $2) RETURNING id`,
		userID, text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save submission: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) SaveLaymenTerm(ctx context.Context, submissionID int64, explanation string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO laymen_terms (submission_id, explanation) VALUES ($1, $2) RETURNING id`,
		submissionID, explanation).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save laymen term: %w", err)
	}
	return id, nil
}

// History lists the user's explained submissions, newest first.
func (r *PostgresRepository) History(ctx context.Context, userID int64) ([]translation.HistoryEntry, error) {
	entries := []translation.HistoryEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT u.id AS user_id, u.username, s.id AS submission_id, s.submitted_text, s.submitted_at,
		        l.id AS laymen_term_id, l.explanation, l.returned_at
		 FROM submissions s
		 JOIN users u ON u.id = s.user_id
		 JOIN laymen_terms l ON l.submission_id = s.id
		 WHERE s.user_id = $1
		 ORDER BY s.submitted_at DESC, s.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND submitted_at >= $2`,
		userID, since)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}
