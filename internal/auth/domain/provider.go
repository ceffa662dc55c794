package domain

import "fmt"

// ProviderType identifies which external identity provider a user signed
// up through. It is written once on first login and never rewritten.
type ProviderType string

const (
	ProviderGoogle   ProviderType = "google"
	ProviderFacebook ProviderType = "facebook"
	ProviderNaver    ProviderType = "naver"
	ProviderKakao    ProviderType = "kakao"
)

// ParseProviderType maps a registration id from the request path to a
// known provider. Unknown values are a configuration error, never
// something to guess around at request time.
func ParseProviderType(s string) (ProviderType, error) {
	switch ProviderType(s) {
	case ProviderGoogle, ProviderFacebook, ProviderNaver, ProviderKakao:
		return ProviderType(s), nil
	}
	return "", fmt.Errorf("unknown provider type %q", s)
}

func (p ProviderType) String() string { return string(p) }
