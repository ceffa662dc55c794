package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `user_id, username, email, email_verified, profile_image_url, provider, role, created_at, modified_at`

func (r *usersRepo) GetUserByUserID(ctx context.Context, userID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)

	var u domain.User
	var provider, role string
	err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.Email,
		&u.EmailVerified,
		&u.ProfileImageURL,
		&provider,
		&role,
		&u.CreatedAt,
		&u.ModifiedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Provider = domain.ProviderType(provider)
	u.Role = domain.Role(role)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.ModifiedAt.IsZero() {
		u.ModifiedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID,
		u.Username,
		u.Email,
		u.EmailVerified,
		u.ProfileImageURL,
		string(u.Provider),
		string(u.Role),
		u.CreatedAt,
		u.ModifiedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *usersRepo) UpdateUserProfile(ctx context.Context, userID, username, profileImageURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, profile_image_url = ?, modified_at = ? WHERE user_id = ?`,
		username, profileImageURL, time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// isUniqueViolation detects sqlite unique constraint failures without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
