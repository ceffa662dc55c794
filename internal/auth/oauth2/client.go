package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/teamlapse/socialauth/internal/auth/domain"
)

// Userinfo endpoints and OAuth2 endpoints for the providers that do not
// publish OIDC discovery documents. Google's come from discovery instead.
const (
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email,picture"
	naverUserInfoURL    = "https://openapi.naver.com/v1/nid/me"
	kakaoUserInfoURL    = "https://kapi.kakao.com/v2/user/me"
)

var (
	facebookEndpoint = oauth2.Endpoint{
		AuthURL:  "https://www.facebook.com/v12.0/dialog/oauth",
		TokenURL: "https://graph.facebook.com/v12.0/oauth/access_token",
	}
	naverEndpoint = oauth2.Endpoint{
		AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
		TokenURL: "https://nid.naver.com/oauth2.0/token",
	}
	kakaoEndpoint = oauth2.Endpoint{
		AuthURL:  "https://kauth.kakao.com/oauth/authorize",
		TokenURL: "https://kauth.kakao.com/oauth/token",
	}
)

// ErrUnknownProvider reports a login attempt against a provider that was
// never registered.
var ErrUnknownProvider = errors.New("unknown oauth2 provider")

// Client drives the authorization-code round-trip for one provider:
// building the consent URL, exchanging the callback code, and fetching the
// raw userinfo attributes.
type Client struct {
	provider    domain.ProviderType
	oauth       *oauth2.Config
	userInfoURL string
	verifier    *oidc.IDTokenVerifier // set only for OIDC providers
}

// NewClient builds a client for a provider that exposes a plain userinfo
// endpoint. The attribute map comes straight from that endpoint's JSON.
func NewClient(provider domain.ProviderType, cfg *oauth2.Config, userInfoURL string) *Client {
	return &Client{provider: provider, oauth: cfg, userInfoURL: userInfoURL}
}

// NewGoogleClient builds the Google client via OIDC discovery. Attributes
// come from the verified ID token rather than a userinfo call, so a
// tampered token never reaches the upsert path.
func NewGoogleClient(ctx context.Context, clientID, clientSecret, redirectURL string) (*Client, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}

	return &Client{
		provider: domain.ProviderGoogle,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewFacebookClient builds the Facebook Graph API client.
func NewFacebookClient(clientID, clientSecret, redirectURL string) *Client {
	return NewClient(domain.ProviderFacebook, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     facebookEndpoint,
		Scopes:       []string{"public_profile", "email"},
	}, facebookUserInfoURL)
}

// NewNaverClient builds the Naver client.
func NewNaverClient(clientID, clientSecret, redirectURL string) *Client {
	return NewClient(domain.ProviderNaver, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     naverEndpoint,
	}, naverUserInfoURL)
}

// NewKakaoClient builds the Kakao client.
func NewKakaoClient(clientID, clientSecret, redirectURL string) *Client {
	return NewClient(domain.ProviderKakao, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     kakaoEndpoint,
		Scopes:       []string{"profile_nickname", "account_email"},
	}, kakaoUserInfoURL)
}

// Provider returns which provider this client talks to.
func (c *Client) Provider() domain.ProviderType { return c.provider }

// AuthCodeURL builds the consent-screen URL for the given correlation
// state, with a PKCE challenge derived from the verifier.
func (c *Client) AuthCodeURL(state, codeVerifier string) string {
	return c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier))
}

// Exchange trades the callback code for provider tokens.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", c.provider, err)
	}
	return token, nil
}

// FetchAttributes returns the provider's raw attribute map for the
// authenticated user. OIDC providers decode the verified ID token; the
// rest call their userinfo endpoint with the access token.
func (c *Client) FetchAttributes(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	if c.verifier != nil {
		return c.verifiedIDTokenClaims(ctx, token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s userinfo returned status %d", c.provider, resp.StatusCode)
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("%s userinfo decode: %w", c.provider, err)
	}
	return attrs, nil
}

func (c *Client) verifiedIDTokenClaims(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s did not return an id_token", c.provider)
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification: %w", c.provider, err)
	}

	var attrs map[string]any
	if err := idToken.Claims(&attrs); err != nil {
		return nil, fmt.Errorf("%s id_token claims: %w", c.provider, err)
	}
	return attrs, nil
}

// Registry holds the configured provider clients, keyed by provider type.
type Registry struct {
	clients map[domain.ProviderType]*Client
}

// NewRegistry indexes the given clients by provider.
func NewRegistry(clients ...*Client) *Registry {
	indexed := make(map[domain.ProviderType]*Client, len(clients))
	for _, c := range clients {
		indexed[c.provider] = c
	}
	return &Registry{clients: indexed}
}

// Get returns the client for a provider, or ErrUnknownProvider.
func (r *Registry) Get(provider domain.ProviderType) (*Client, error) {
	c, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return c, nil
}
