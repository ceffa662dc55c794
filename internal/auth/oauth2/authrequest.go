package oauth2

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/pkg/httpx"
)

// Cookie names for the transient login state. The callback may land on a
// different instance than the one that started the flow, so everything the
// callback needs travels in the browser instead of a server session.
const (
	AuthRequestCookie  = "oauth2_auth_request"
	RedirectURICookie  = "redirect_uri"
	RefreshTokenCookie = "refresh_token"

	// Cookies only need to survive the provider round-trip.
	cookieMaxAgeSeconds = 180
)

// AuthRequest is the correlation state minted when a login flow starts and
// checked when the provider calls back.
type AuthRequest struct {
	Provider     domain.ProviderType `json:"provider"`
	State        string              `json:"state"`
	CodeVerifier string              `json:"code_verifier"`
}

// AuthRequestRepository persists AuthRequests in browser cookies.
type AuthRequestRepository struct{}

// NewAuthRequestRepository returns a cookie-backed repository.
func NewAuthRequestRepository() *AuthRequestRepository {
	return &AuthRequestRepository{}
}

// Save stores the request in a short-lived cookie. A nil request clears all
// transient cookies instead. If the caller supplied a redirect_uri query
// parameter it is stored verbatim in its own cookie with the same lifetime.
func (repo *AuthRequestRepository) Save(w http.ResponseWriter, r *http.Request, req *AuthRequest) error {
	if req == nil {
		repo.Remove(w, r)
		return nil
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpx.SetCookie(w, AuthRequestCookie, base64.RawURLEncoding.EncodeToString(raw), cookieMaxAgeSeconds)

	if redirectURI := r.URL.Query().Get(RedirectURICookie); redirectURI != "" {
		httpx.SetCookie(w, RedirectURICookie, redirectURI, cookieMaxAgeSeconds)
	}
	return nil
}

// Load returns the stored AuthRequest, or nil when the cookie is missing or
// unreadable. Malformed correlation state is the same as no state; the
// caller restarts the flow rather than erroring.
func (repo *AuthRequestRepository) Load(r *http.Request) *AuthRequest {
	c, ok := httpx.GetCookie(r, AuthRequestCookie)
	if !ok {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}

	var req AuthRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil
	}
	return &req
}

// RedirectURI returns the caller-chosen post-login destination, if one was
// stored when the flow started.
func (repo *AuthRequestRepository) RedirectURI(r *http.Request) (string, bool) {
	c, ok := httpx.GetCookie(r, RedirectURICookie)
	if !ok || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Remove expires every transient login cookie the request carries.
// Idempotent; absent cookies are skipped.
func (repo *AuthRequestRepository) Remove(w http.ResponseWriter, r *http.Request) {
	httpx.DeleteCookie(r, w, AuthRequestCookie)
	httpx.DeleteCookie(r, w, RedirectURICookie)
	httpx.DeleteCookie(r, w, RefreshTokenCookie)
}
