package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	xoauth2 "golang.org/x/oauth2"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/internal/auth/service"
	"github.com/teamlapse/socialauth/internal/auth/store/drivers/sqlite"
	"github.com/teamlapse/socialauth/pkg/authtoken"
)

const (
	testSecret   = "mysecretkeymysecretkeymysecretkeymysecretkey"
	testRedirect = "http://localhost:3000/oauth2/redirect"
)

// fakeProvider stands in for an external identity provider: a token
// endpoint that accepts "good-code" and a userinfo endpoint serving the
// given raw attributes.
func fakeProvider(t *testing.T, provider domain.ProviderType, userinfo map[string]any) *oauth2.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return oauth2.NewClient(provider, &xoauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/login/oauth2/code/" + provider.String(),
		Endpoint: xoauth2.Endpoint{
			AuthURL:   srv.URL + "/authorize",
			TokenURL:  srv.URL + "/token",
			AuthStyle: xoauth2.AuthStyleInParams,
		},
	}, srv.URL+"/userinfo")
}

func newTestRouter(t *testing.T, clients ...*oauth2.Client) *Router {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db") + "?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens := authtoken.NewProvider(testSecret)
	refreshTTL := 14 * 24 * time.Hour

	r := NewRouter(tokens, "test", refreshTTL, st, slog.New(slog.DiscardHandler))
	r.Providers = oauth2.NewRegistry(clients...)
	r.AuthRequests = oauth2.NewAuthRequestRepository()
	r.UserService = &service.OAuth2UserService{Store: st}
	r.LoginService = &service.LoginService{
		Tokens:                 tokens,
		Store:                  st,
		AccessTTL:              30 * time.Minute,
		RefreshTTL:             refreshTTL,
		AuthorizedRedirectURIs: []string{testRedirect},
	}
	r.ApplyRoutes()
	return r
}

// beginLogin drives GET /oauth2/authorization/{provider} and returns the
// provider consent URL plus the transient cookies that were issued.
func beginLogin(t *testing.T, router *Router, provider, redirectURI string) (*url.URL, []*http.Cookie) {
	t.Helper()

	target := "/oauth2/authorization/" + provider
	if redirectURI != "" {
		target += "?redirect_uri=" + url.QueryEscape(redirectURI)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return loc, w.Result().Cookies()
}

func TestAuthorizationHandler(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, nil))

	t.Run("redirects to the provider with correlation cookies", func(t *testing.T) {
		loc, cookies := beginLogin(t, router, "naver", testRedirect)

		q := loc.Query()
		require.NotEmpty(t, q.Get("state"))
		require.Equal(t, "client-id", q.Get("client_id"))

		names := []string{}
		for _, c := range cookies {
			names = append(names, c.Name)
			require.Equal(t, 180, c.MaxAge)
			require.True(t, c.HttpOnly)
		}
		require.ElementsMatch(t, []string{oauth2.AuthRequestCookie, oauth2.RedirectURICookie}, names)
	})

	t.Run("unknown provider name", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth2/authorization/github", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("known provider without a registered client", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth2/authorization/kakao", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// completeLogin drives the full begin+callback round-trip and returns the
// callback response.
func completeLogin(t *testing.T, router *Router, provider, redirectURI string) *httptest.ResponseRecorder {
	t.Helper()

	loc, cookies := beginLogin(t, router, provider, redirectURI)

	cb := httptest.NewRequest(http.MethodGet,
		"/login/oauth2/code/"+provider+"?code=good-code&state="+url.QueryEscape(loc.Query().Get("state")), nil)
	for _, c := range cookies {
		cb.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, cb)
	return w
}

func TestCallbackHandler(t *testing.T) {
	t.Parallel()

	naverInfo := map[string]any{
		"response": map[string]any{
			"id":            "32742776",
			"nickname":      "tester",
			"email":         "test@naver.com",
			"profile_image": "https://phinf.pstatic.net/photo.jpg",
		},
	}

	t.Run("happy path mints tokens and redirects", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))
		w := completeLogin(t, router, "naver", testRedirect)
		require.Equal(t, http.StatusFound, w.Code)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "localhost:3000", loc.Host)
		access := loc.Query().Get("token")
		require.NotEmpty(t, access)

		claims, err := router.tokens.ConvertToken(access).Claims()
		require.NoError(t, err)
		require.Equal(t, "32742776", claims.Subject)
		require.Equal(t, "user", claims.Role)

		// Transient cookies are expired, a fresh refresh cookie is set.
		byName := map[string]*http.Cookie{}
		for _, c := range w.Result().Cookies() {
			byName[c.Name] = c
		}
		require.Empty(t, byName[oauth2.AuthRequestCookie].Value)
		require.Empty(t, byName[oauth2.RedirectURICookie].Value)
		require.NotEmpty(t, byName[oauth2.RefreshTokenCookie].Value)
		require.Positive(t, byName[oauth2.RefreshTokenCookie].MaxAge)

		user, err := router.store.Users().GetUserByUserID(t.Context(), "32742776")
		require.NoError(t, err)
		require.Equal(t, "tester", user.Username)
		require.Equal(t, domain.ProviderNaver, user.Provider)
	})

	t.Run("state mismatch redirects with error", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))
		_, cookies := beginLogin(t, router, "naver", testRedirect)

		cb := httptest.NewRequest(http.MethodGet, "/login/oauth2/code/naver?code=good-code&state=forged", nil)
		for _, c := range cookies {
			cb.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, cb)

		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		require.Contains(t, loc.Query().Get("error"), "state mismatch")
	})

	t.Run("missing correlation cookies redirect to root with error", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/oauth2/code/naver?code=good-code&state=s", nil))

		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "/", loc.Path)
		require.NotEmpty(t, loc.Query().Get("error"))
	})

	t.Run("provider mismatch surfaces the registered provider", func(t *testing.T) {
		kakaoInfo := map[string]any{
			"id":         float64(1),
			"properties": map[string]any{"nickname": "tester"},
		}
		// Same provider-assigned id registered under kakao first.
		kakaoInfo["id"] = "32742776"

		router := newTestRouter(t,
			fakeProvider(t, domain.ProviderKakao, kakaoInfo),
			fakeProvider(t, domain.ProviderNaver, naverInfo),
		)

		w := completeLogin(t, router, "kakao", testRedirect)
		require.Equal(t, http.StatusFound, w.Code)

		w = completeLogin(t, router, "naver", testRedirect)
		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		require.Contains(t, loc.Query().Get("error"), "kakao")

		user, err := router.store.Users().GetUserByUserID(t.Context(), "32742776")
		require.NoError(t, err)
		require.Equal(t, domain.ProviderKakao, user.Provider)
	})

	t.Run("unlisted redirect target is fatal, no cookies touched", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))
		w := completeLogin(t, router, "naver", "http://evil.example.com/steal")

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Empty(t, w.Result().Cookies(), "fatal rejection mutates no cookie")

		_, err := router.store.RefreshTokens().GetRefreshTokenByUserID(t.Context(), "32742776")
		require.Error(t, err, "no token may be issued toward an unverified destination")
	})

	t.Run("provider error parameter redirects with error", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/oauth2/code/naver?error=access_denied", nil))

		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		require.Contains(t, loc.Query().Get("error"), "denied")
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	naverInfo := map[string]any{
		"response": map[string]any{"id": "32742776", "nickname": "tester"},
	}

	login := func(t *testing.T, router *Router) (refreshCookie *http.Cookie) {
		t.Helper()
		w := completeLogin(t, router, "naver", testRedirect)
		require.Equal(t, http.StatusFound, w.Code)
		for _, c := range w.Result().Cookies() {
			if c.Name == oauth2.RefreshTokenCookie && c.Value != "" {
				return c
			}
		}
		t.Fatal("login set no refresh cookie")
		return nil
	}

	t.Run("exchanges an expired access token", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))
		cookie := login(t, router)

		expired, err := router.tokens.CreateTokenWithRole("32742776", "user", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer "+expired.String())
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var pair domain.TokenPair
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
		require.True(t, router.tokens.ConvertToken(pair.AccessToken).Validate())
	})

	t.Run("rejects a still-valid access token", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))
		cookie := login(t, router)

		valid, err := router.tokens.CreateTokenWithRole("32742776", "user", time.Now().Add(time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer "+valid.String())
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a missing refresh cookie", func(t *testing.T) {
		router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer whatever")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	t.Parallel()

	naverInfo := map[string]any{
		"response": map[string]any{"id": "32742776", "nickname": "tester", "email": "test@naver.com"},
	}

	router := newTestRouter(t, fakeProvider(t, domain.ProviderNaver, naverInfo))
	w := completeLogin(t, router, "naver", testRedirect)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	access := loc.Query().Get("token")

	t.Run("returns the caller's profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var user UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		require.Equal(t, "32742776", user.UserID)
		require.Equal(t, "tester", user.Username)
		require.Equal(t, "naver", user.Provider)
	})

	t.Run("anonymous request is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for _, path := range []string{"/livez", "/readyz"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)

		var health HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
		require.Equal(t, "ok", health.Status)
		require.Equal(t, "test", health.Version)
	}
}
