package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/internal/auth/store"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

// ErrMissingProviderID reports a provider payload without a usable account
// id. Nothing can be reconciled against the user store without one.
var ErrMissingProviderID = errors.New("provider returned no account id")

// ProviderMismatchError reports a login attempt against an account that
// was registered through a different provider. The same identity must
// never silently migrate between providers.
type ProviderMismatchError struct {
	Registered domain.ProviderType
	Attempted  domain.ProviderType
}

func (e *ProviderMismatchError) Error() string {
	return fmt.Sprintf("looks like you signed up with %s; use your %s account to log in", e.Registered, e.Registered)
}

// OAuth2UserService reconciles a normalized provider identity against the
// stored users.
type OAuth2UserService struct {
	Store store.Store
}

// Process normalizes the provider's raw attributes and upserts the user:
// first login creates the record, a matching provider refreshes the
// mutable profile fields, a different provider fails with
// ProviderMismatchError. UserID and Provider are never rewritten.
func (s *OAuth2UserService) Process(ctx context.Context, provider domain.ProviderType, attributes map[string]any) (domain.User, error) {
	l := slogx.FromContext(ctx)

	info, err := oauth2.NormalizeUserInfo(provider, attributes)
	if err != nil {
		return domain.User{}, err
	}
	if info.ID == "" {
		return domain.User{}, ErrMissingProviderID
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Users().GetUserByUserID(ctx, info.ID)
		if errors.Is(err, store.ErrNotFound) {
			user = domain.User{
				UserID:          info.ID,
				Username:        info.Name,
				Email:           info.Email,
				EmailVerified:   true,
				ProfileImageURL: info.ImageURL,
				Provider:        provider,
				Role:            domain.RoleUser,
			}
			if err := tx.Users().CreateUser(ctx, user); err != nil {
				return err
			}
			l.Info("created user from first login",
				slog.String("user_id", info.ID),
				slog.String("provider", provider.String()))
			return nil
		}
		if err != nil {
			return err
		}

		if existing.Provider != provider {
			return &ProviderMismatchError{Registered: existing.Provider, Attempted: provider}
		}

		if existing.Username != info.Name || existing.ProfileImageURL != info.ImageURL {
			if err := tx.Users().UpdateUserProfile(ctx, existing.UserID, info.Name, info.ImageURL); err != nil {
				return err
			}
			existing.Username = info.Name
			existing.ProfileImageURL = info.ImageURL
		}
		user = existing
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
