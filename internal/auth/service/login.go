package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/internal/auth/store"
	"github.com/teamlapse/socialauth/pkg/authtoken"
	"github.com/teamlapse/socialauth/pkg/cryptox"
	"github.com/teamlapse/socialauth/pkg/idx"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

var (
	// ErrUnauthorizedRedirect blocks token issuance toward a destination
	// outside the configured allow-list. Raised before any side effect.
	ErrUnauthorizedRedirect = errors.New("unauthorized redirect_uri, cannot proceed with authentication")

	// ErrInvalidRefresh covers a refresh attempt whose refresh token does
	// not verify or does not match the stored one.
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// refreshRotateThreshold is how close to expiry a refresh token may get
// before a refresh call also rotates it.
const refreshRotateThreshold = 3 * 24 * time.Hour

// LoginService mints the service's own tokens once a provider login has
// been reconciled, and drives the refresh flow.
type LoginService struct {
	Tokens                 *authtoken.Provider
	Store                  store.Store
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	AuthorizedRedirectURIs []string
}

// CompleteLogin gates the redirect target against the allow-list, mints an
// access and a refresh token, overwrites the user's stored refresh token
// row, and returns the pair plus the final redirect URL carrying the
// access token. The allow-list check runs before anything else: no
// credential is ever issued toward an unverified destination.
func (s *LoginService) CompleteLogin(ctx context.Context, user domain.User, redirectURI string) (domain.TokenPair, string, error) {
	l := slogx.FromContext(ctx)

	target := redirectURI
	if target == "" {
		target = "/"
	} else if !s.isAuthorizedRedirect(target) {
		return domain.TokenPair{}, "", ErrUnauthorizedRedirect
	}

	now := time.Now()
	access, err := s.Tokens.CreateTokenWithRole(user.UserID, string(user.Role), now.Add(s.AccessTTL))
	if err != nil {
		return domain.TokenPair{}, "", err
	}
	refresh, err := s.Tokens.CreateToken(user.UserID, now.Add(s.RefreshTTL))
	if err != nil {
		return domain.TokenPair{}, "", err
	}

	// Overwrite, never append: one stored refresh token per user, and the
	// most recent login wins.
	err = s.Store.RefreshTokens().UpsertRefreshToken(ctx, domain.RefreshToken{
		ID:     idx.New().String(),
		UserID: user.UserID,
		Token:  refresh.String(),
	})
	if err != nil {
		return domain.TokenPair{}, "", err
	}

	l.Info("login completed",
		slog.String("user_id", user.UserID),
		slog.String("provider", user.Provider.String()),
		slog.String("refresh_fp", cryptox.FingerprintToken(refresh.String())))

	pair := domain.TokenPair{
		AccessToken:  access.String(),
		RefreshToken: refresh.String(),
		TokenType:    "Bearer",
		ExpiresIn:    int(s.AccessTTL.Seconds()),
	}
	return pair, appendQuery(target, "token", access.String()), nil
}

// FailureURL builds the failure redirect for a login attempt: the chosen
// target or the application root, with the error message attached.
func (s *LoginService) FailureURL(redirectURI string, cause error) string {
	target := redirectURI
	if target == "" {
		target = "/"
	}
	return appendQuery(target, "error", cause.Error())
}

// Refresh exchanges an expired-but-authentic access token and a currently
// valid refresh token for a fresh access token. When the presented refresh
// token is within refreshRotateThreshold of its own expiry it is rotated
// too, and the returned pair carries the replacement; otherwise the
// RefreshToken field is empty.
func (s *LoginService) Refresh(ctx context.Context, expiredAccess, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	// The access token must be expired, and expired only: a tampered or
	// never-valid token proves nothing about its subject.
	accessClaims, err := s.Tokens.ConvertToken(expiredAccess).ExpiredClaims()
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh := s.Tokens.ConvertToken(refreshToken)
	refreshClaims, err := refresh.Claims()
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	userID := accessClaims.Subject
	stored, err := s.Store.RefreshTokens().GetRefreshTokenByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}
	if stored.Token != refreshToken {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	now := time.Now()
	access, err := s.Tokens.CreateTokenWithRole(userID, accessClaims.Role, now.Add(s.AccessTTL))
	if err != nil {
		return domain.TokenPair{}, err
	}

	pair := domain.TokenPair{
		AccessToken: access.String(),
		TokenType:   "Bearer",
		ExpiresIn:   int(s.AccessTTL.Seconds()),
	}

	if refreshClaims.ExpiresAt != nil && refreshClaims.ExpiresAt.Sub(now) <= refreshRotateThreshold {
		rotated, err := s.Tokens.CreateToken(userID, now.Add(s.RefreshTTL))
		if err != nil {
			return domain.TokenPair{}, err
		}
		stored.Token = rotated.String()
		stored.UpdatedAt = now
		if err := s.Store.RefreshTokens().UpsertRefreshToken(ctx, stored); err != nil {
			return domain.TokenPair{}, err
		}
		pair.RefreshToken = rotated.String()
		l.Info("rotated refresh token", slog.String("user_id", userID))
	}

	return pair, nil
}

// isAuthorizedRedirect reports whether the destination matches one of the
// configured redirect URIs by host and port. Paths are the client's
// business; hosts are not.
func (s *LoginService) isAuthorizedRedirect(target string) bool {
	client, err := url.Parse(target)
	if err != nil {
		return false
	}
	for _, authorized := range s.AuthorizedRedirectURIs {
		u, err := url.Parse(authorized)
		if err != nil {
			continue
		}
		if strings.EqualFold(u.Hostname(), client.Hostname()) && u.Port() == client.Port() {
			return true
		}
	}
	return false
}

// appendQuery attaches one query parameter to a URL, preserving whatever
// query it already carries.
func appendQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
