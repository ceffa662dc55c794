package oauth2

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamlapse/socialauth/internal/auth/domain"
)

func TestNormalizeUserInfo(t *testing.T) {
	t.Parallel()

	t.Run("google", func(t *testing.T) {
		info, err := NormalizeUserInfo(domain.ProviderGoogle, map[string]any{
			"sub":     "110169484474386276334",
			"name":    "Test User",
			"email":   "test@gmail.com",
			"picture": "https://lh3.googleusercontent.com/photo.jpg",
		})
		require.NoError(t, err)
		require.Equal(t, "110169484474386276334", info.ID)
		require.Equal(t, "Test User", info.Name)
		require.Equal(t, "test@gmail.com", info.Email)
		require.Equal(t, "https://lh3.googleusercontent.com/photo.jpg", info.ImageURL)
		require.Equal(t, domain.ProviderGoogle, info.Provider)
	})

	t.Run("facebook", func(t *testing.T) {
		info, err := NormalizeUserInfo(domain.ProviderFacebook, map[string]any{
			"id":       "10158421400000000",
			"name":     "Test User",
			"email":    "test@example.com",
			"imageUrl": "https://graph.facebook.com/photo.jpg",
		})
		require.NoError(t, err)
		require.Equal(t, "10158421400000000", info.ID)
		require.Equal(t, "https://graph.facebook.com/photo.jpg", info.ImageURL)
	})

	t.Run("naver nests under response", func(t *testing.T) {
		info, err := NormalizeUserInfo(domain.ProviderNaver, map[string]any{
			"resultcode": "00",
			"message":    "success",
			"response": map[string]any{
				"id":            "32742776",
				"nickname":      "tester",
				"email":         "test@naver.com",
				"profile_image": "https://phinf.pstatic.net/photo.jpg",
			},
		})
		require.NoError(t, err)
		require.Equal(t, "32742776", info.ID)
		require.Equal(t, "tester", info.Name)
		require.Equal(t, "test@naver.com", info.Email)
		require.Equal(t, "https://phinf.pstatic.net/photo.jpg", info.ImageURL)
	})

	t.Run("kakao numeric id and properties sub-map", func(t *testing.T) {
		info, err := NormalizeUserInfo(domain.ProviderKakao, map[string]any{
			"id":            float64(1376016924), // JSON numbers decode as float64
			"account_email": "test@kakao.com",
			"properties": map[string]any{
				"nickname":        "tester",
				"thumbnail_image": "http://k.kakaocdn.net/photo.jpg",
			},
		})
		require.NoError(t, err)
		require.Equal(t, "1376016924", info.ID)
		require.Equal(t, "tester", info.Name)
		require.Equal(t, "test@kakao.com", info.Email)
		require.Equal(t, "http://k.kakaocdn.net/photo.jpg", info.ImageURL)
	})

	t.Run("missing keys come back empty, not panicking", func(t *testing.T) {
		info, err := NormalizeUserInfo(domain.ProviderNaver, map[string]any{})
		require.NoError(t, err)
		require.Empty(t, info.ID)
		require.Empty(t, info.Email)
	})

	t.Run("unregistered provider", func(t *testing.T) {
		_, err := NormalizeUserInfo(domain.ProviderType("github"), map[string]any{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "github")
	})
}
