package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("mysecretkeymysecretkeymysecretkeymysecretkey")

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a subject", func(t *testing.T) {
		_, err := New("", "user", time.Now().Add(time.Hour), testKey)
		require.ErrorIs(t, err, ErrEmptySubject)
	})

	t.Run("role is optional", func(t *testing.T) {
		tok, err := New("alice", "", time.Now().Add(time.Hour), testKey)
		require.NoError(t, err)
		require.NotEmpty(t, tok.String())
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := New("alice", "user", time.Now().Add(10*time.Minute), testKey)
	require.NoError(t, err)

	reparsed := Parse(tok.String(), testKey)
	require.True(t, reparsed.Validate())

	claims, err := reparsed.Claims()
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, "user", claims.Role)
	require.NotNil(t, claims.IssuedAt)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("expired token is invalid", func(t *testing.T) {
		tok, err := New("alice", "user", time.Now().Add(-time.Minute), testKey)
		require.NoError(t, err)
		require.False(t, tok.Validate())

		_, err = tok.Claims()
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong key is invalid", func(t *testing.T) {
		tok, err := New("alice", "user", time.Now().Add(time.Hour), []byte("some-other-key-some-other-key-!!"))
		require.NoError(t, err)

		require.False(t, Parse(tok.String(), testKey).Validate())
	})

	t.Run("garbage is invalid, not a panic", func(t *testing.T) {
		require.False(t, Parse("not.a.token", testKey).Validate())
		require.False(t, Parse("", testKey).Validate())
	})
}

func TestExpiredClaims(t *testing.T) {
	t.Parallel()

	t.Run("readable when only expired", func(t *testing.T) {
		tok, err := New("alice", "user", time.Now().Add(-time.Minute), testKey)
		require.NoError(t, err)

		claims, err := tok.ExpiredClaims()
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, "user", claims.Role)
	})

	t.Run("fails for a still-valid token", func(t *testing.T) {
		tok, err := New("alice", "user", time.Now().Add(time.Hour), testKey)
		require.NoError(t, err)

		_, err = tok.ExpiredClaims()
		require.ErrorIs(t, err, ErrNotExpired)
	})

	t.Run("fails for a token signed with a different key", func(t *testing.T) {
		tok, err := New("alice", "user", time.Now().Add(-time.Minute), []byte("some-other-key-some-other-key-!!"))
		require.NoError(t, err)

		wrapped := Parse(tok.String(), testKey)
		require.False(t, wrapped.Validate())

		_, err = wrapped.ExpiredClaims()
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNotExpired)
	})

	t.Run("fails for garbage", func(t *testing.T) {
		_, err := Parse("garbage", testKey).ExpiredClaims()
		require.Error(t, err)
	})
}
