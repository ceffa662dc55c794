package authtoken

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidationFailed is returned by Authentication when the presented
// token does not validate. This is the one place an invalid token becomes
// an explicit error instead of a boolean: every caller here needs either a
// concrete principal or a concrete reason for refusal.
var ErrValidationFailed = errors.New("authtoken: token validation failed")

// Principal is the request-scoped identity derived from a valid token.
// It has no storage of its own and must be re-derived per request.
type Principal struct {
	Subject string
	Role    string
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool { return p.Role == role }

// Provider is a stateless token factory bound to the process-wide signing
// secret. The key is immutable after construction and safe for concurrent
// use from any number of requests.
type Provider struct {
	key []byte
}

func NewProvider(secret string) *Provider {
	return &Provider{key: []byte(secret)}
}

// CreateToken signs a token carrying only the subject. Used for refresh
// tokens, which grant nothing by themselves.
func (p *Provider) CreateToken(subject string, expiry time.Time) (Token, error) {
	return New(subject, "", expiry, p.key)
}

// CreateTokenWithRole signs an access token carrying subject and role.
func (p *Provider) CreateTokenWithRole(subject, role string, expiry time.Time) (Token, error) {
	return New(subject, role, expiry, p.key)
}

// ConvertToken wraps a wire-format token string for later validation.
func (p *Provider) ConvertToken(encoded string) Token {
	return Parse(encoded, p.key)
}

// Authentication derives the principal from a token, requiring it to be
// currently valid. Fails with ErrValidationFailed otherwise.
func (p *Provider) Authentication(t Token) (Principal, error) {
	claims, err := t.Claims()
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return Principal{Subject: claims.Subject, Role: claims.Role}, nil
}
