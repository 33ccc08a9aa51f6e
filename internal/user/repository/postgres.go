package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Deehands24/laymen-terms/internal/user"
)

// ErrDuplicateUsername is returned by Create when the username is taken.
var ErrDuplicateUsername = errors.New("duplicate username")

const uniqueViolation = "23505"

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, u.Username, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByUsername returns nil, nil when no user matches.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
