package oauth2

import (
	"fmt"

	"github.com/teamlapse/socialauth/internal/auth/domain"
)

// UserInfo is the canonical identity shape every provider's raw attribute
// map is normalized into. It lives for one login attempt only; the upsert
// service reconciles it into a stored user.
type UserInfo struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
	Provider domain.ProviderType
}

// normalizers maps each provider to a pure function over its raw userinfo
// payload. Providers disagree on key names and nesting, so each entry knows
// one shape and nothing else.
var normalizers = map[domain.ProviderType]func(map[string]any) UserInfo{
	domain.ProviderGoogle:   normalizeGoogle,
	domain.ProviderFacebook: normalizeFacebook,
	domain.ProviderNaver:    normalizeNaver,
	domain.ProviderKakao:    normalizeKakao,
}

// NormalizeUserInfo converts a provider's raw attribute map into the
// canonical shape. An unregistered provider is a configuration error, not
// something a request can recover from.
func NormalizeUserInfo(provider domain.ProviderType, attributes map[string]any) (UserInfo, error) {
	normalize, ok := normalizers[provider]
	if !ok {
		return UserInfo{}, fmt.Errorf("no userinfo mapping registered for provider %q", provider)
	}

	info := normalize(attributes)
	info.Provider = provider
	return info, nil
}

func normalizeGoogle(attrs map[string]any) UserInfo {
	return UserInfo{
		ID:       str(attrs["sub"]),
		Name:     str(attrs["name"]),
		Email:    str(attrs["email"]),
		ImageURL: str(attrs["picture"]),
	}
}

func normalizeFacebook(attrs map[string]any) UserInfo {
	return UserInfo{
		ID:       str(attrs["id"]),
		Name:     str(attrs["name"]),
		Email:    str(attrs["email"]),
		ImageURL: str(attrs["imageUrl"]),
	}
}

// Naver wraps the actual profile under a "response" key.
func normalizeNaver(attrs map[string]any) UserInfo {
	response, _ := attrs["response"].(map[string]any)
	return UserInfo{
		ID:       str(response["id"]),
		Name:     str(response["nickname"]),
		Email:    str(response["email"]),
		ImageURL: str(response["profile_image"]),
	}
}

// Kakao keeps its numeric account id at the top level and the profile
// fields under a "properties" sub-map.
func normalizeKakao(attrs map[string]any) UserInfo {
	properties, _ := attrs["properties"].(map[string]any)
	return UserInfo{
		ID:       str(attrs["id"]),
		Name:     str(properties["nickname"]),
		Email:    str(attrs["account_email"]),
		ImageURL: str(properties["thumbnail_image"]),
	}
}

// str renders a raw attribute value as a string. Kakao's id arrives as a
// JSON number, everything else as strings; absent keys become "".
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; provider ids are integral.
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
