package sqlite

import (
	"context"
	"time"

	"github.com/teamlapse/socialauth/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) GetRefreshTokenByUserID(ctx context.Context, userID string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, created_at, updated_at FROM refresh_tokens WHERE user_id = ?`,
		userID)

	var t domain.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

// UpsertRefreshToken keeps the one-row-per-user invariant in the database:
// the unique index on user_id turns a second login into an overwrite of
// the existing token, never a second row.
func (r *refreshTokensRepo) UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		t.ID, t.UserID, t.Token, t.CreatedAt, t.UpdatedAt)
	return err
}
