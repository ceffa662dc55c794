package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEmptySubject reports a token created without a subject. This is a
	// programmer error, not something a caller can recover from at runtime.
	ErrEmptySubject = errors.New("authtoken: empty subject")

	// ErrNotExpired is returned by ExpiredClaims when the token is still
	// within its lifetime. The refresh flow treats this as "nothing to do".
	ErrNotExpired = errors.New("authtoken: token not expired")
)

// Claims are the signed contents of a Token: the registered sub/iat/exp
// set plus an optional application role.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the authority granted to the subject, e.g. "user" or "admin".
	// Refresh tokens omit it.
	Role string `json:"role,omitempty"`
}

// Token is a signed, self-contained bearer credential. The encoded string
// is fixed at creation or parse time and never mutated; validity is
// re-derived from the signature and the clock on every check.
type Token struct {
	encoded string
	key     []byte
}

// New builds and signs a token with HMAC-SHA256. The subject is required;
// role may be empty.
func New(subject, role string, expiry time.Time, key []byte) (Token, error) {
	if subject == "" {
		return Token{}, ErrEmptySubject
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Role: role,
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return Token{}, fmt.Errorf("authtoken: sign: %w", err)
	}

	return Token{encoded: encoded, key: key}, nil
}

// Parse wraps an encoded string without inspecting it. Cryptographic and
// expiry checks are deferred to Validate/Claims/ExpiredClaims, so Parse
// never fails even on garbage input.
func Parse(encoded string, key []byte) Token {
	return Token{encoded: encoded, key: key}
}

// String returns the compact encoded form.
func (t Token) String() string { return t.encoded }

// Validate reports whether the signature verifies and the token is within
// its lifetime. Malformed, wrong-key, expired and not-yet-valid tokens all
// yield false; Validate never panics or returns an error.
func (t Token) Validate() bool {
	_, err := t.decode()
	return err == nil
}

// Claims returns the decoded claims of a currently valid token. It fails
// for any token Validate would reject.
func (t Token) Claims() (Claims, error) {
	return t.decode()
}

// ExpiredClaims returns the claims of a token whose only defect is expiry.
// The signature must still verify: this is what lets the refresh flow
// prove "this was once legitimately issued for subject X" without ever
// accepting a tampered token. A still-valid token yields ErrNotExpired.
func (t Token) ExpiredClaims() (Claims, error) {
	claims, err := t.decode()
	if err == nil {
		return Claims{}, ErrNotExpired
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		// jwt/v5 bails out before claim validation when the signature does
		// not verify, so reaching ErrTokenExpired implies an authentic token.
		return claims, nil
	}
	return Claims{}, err
}

func (t Token) decode() (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(t.encoded, &claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("authtoken: unexpected signing method %v", tk.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return claims, err
	}
	return claims, nil
}
