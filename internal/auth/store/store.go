package store

import (
	"context"
	"errors"

	"github.com/teamlapse/socialauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later if needed) implement this. It exposes sub-repositories to
// keep concerns tidy and testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByUserID returns a user by its provider-assigned id.
	GetUserByUserID(ctx context.Context, userID string) (domain.User, error)

	// CreateUser inserts a new user on first login for a given userID.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserProfile rewrites the mutable profile fields and bumps
	// modified_at. Provider and userID are deliberately not updatable.
	UpdateUserProfile(ctx context.Context, userID, username, profileImageURL string) error
}

type RefreshTokens interface {
	// GetRefreshTokenByUserID returns the user's single refresh token row.
	GetRefreshTokenByUserID(ctx context.Context, userID string) (domain.RefreshToken, error)

	// UpsertRefreshToken overwrites the user's refresh token, inserting the
	// row on first login. One row per user; never appends.
	UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error
}
