package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tubehub/backend/internal/auth"
	"github.com/tubehub/backend/internal/db"
)

// PostgresSessionStore persists the single valid refresh token per user.
// The sessions table is keyed by user id, so there is exactly one slot to
// overwrite and compare against.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Rotate overwrites the user's session slot unconditionally. Used on login,
// where any previously issued refresh token is invalidated by design.
func (s *PostgresSessionStore) Rotate(ctx context.Context, userID, refreshToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (user_id, refresh_token, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id)
        DO UPDATE SET refresh_token = EXCLUDED.refresh_token, updated_at = EXCLUDED.updated_at
    `, userID, refreshToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Swap replaces the stored token only if it still equals oldToken. The
// conditional update is a single statement, so two concurrent refresh
// attempts cannot both succeed; the loser observes zero affected rows and
// gets a stale-token error.
func (s *PostgresSessionStore) Swap(ctx context.Context, userID, oldToken, newToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET refresh_token = $3, updated_at = $4
        WHERE user_id = $1 AND refresh_token = $2
    `, userID, oldToken, newToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("swap session token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrTokenStale
	}

	return nil
}

// Current loads the refresh token currently stored for the user.
func (s *PostgresSessionStore) Current(ctx context.Context, userID string) (string, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var token string
	err = conn.QueryRow(ctx, `
        SELECT refresh_token FROM sessions WHERE user_id = $1
    `, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", auth.ErrSessionNotFound
		}
		return "", fmt.Errorf("select session: %w", err)
	}

	return token, nil
}

// Clear removes the user's session slot.
func (s *PostgresSessionStore) Clear(ctx context.Context, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
