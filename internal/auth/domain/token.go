package domain

import "time"

// RefreshToken models the single stored refresh token per user. There is
// exactly one row per UserID; each login or rotation overwrites it, so an
// earlier token simply stops matching. Concurrent logins race and the last
// write wins.
type RefreshToken struct {
	ID        string // ULID, row identity only
	UserID    string // unique
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is what a completed login produces: the short-lived signed
// access token and the long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int    `json:"expires_in,omitempty"` // seconds until access expiry
}
