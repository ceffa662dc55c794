package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/internal/auth/service"
	"github.com/teamlapse/socialauth/pkg/httpx"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

var (
	errStateMismatch  = errors.New("authorization request not found or state mismatch")
	errProviderDenied = errors.New("authentication was denied by the provider")
)

type CallbackHandler struct {
	Providers    *oauth2.Registry
	AuthRequests *oauth2.AuthRequestRepository
	UserService  *service.OAuth2UserService
	LoginService *service.LoginService
	RefreshTTL   time.Duration
}

// ServeHTTP completes a login flow when the provider calls back.
//
//	@Summary		Social login callback
//	@Description	Checks the cookie-carried correlation state, exchanges the
//	@Description	code, upserts the user and redirects to the allow-listed
//	@Description	target with ?token=<access>. Failures redirect to the
//	@Description	target-or-root with ?error=<message>.
//	@Tags			Login
//	@Param			provider	path	string	true	"google, facebook, naver or kakao"
//	@Param			code		query	string	false	"authorization code"
//	@Param			state		query	string	false	"correlation state"
//	@Success		302
//	@Failure		400	{object}	ErrorResponse	"Redirect target not allow-listed"
//	@Failure		404	{object}	ErrorResponse	"Unknown provider"
//	@Router			/login/oauth2/code/{provider} [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider, err := domain.ParseProviderType(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return
	}

	redirectURI, _ := h.AuthRequests.RedirectURI(r)

	// fail clears the transient cookies and sends the browser to the
	// chosen target (or the root) with the message attached. Every
	// failure past this point takes this channel, whatever its type.
	fail := func(cause error) {
		log.Info("login failed", "provider", provider.String(), "err", cause)
		h.AuthRequests.Remove(w, r)
		http.Redirect(w, r, h.LoginService.FailureURL(redirectURI, cause), http.StatusFound)
	}

	if q := r.URL.Query(); q.Get("error") != "" {
		fail(errProviderDenied)
		return
	}

	authReq := h.AuthRequests.Load(r)
	if authReq == nil || authReq.Provider != provider || authReq.State != r.URL.Query().Get("state") {
		fail(errStateMismatch)
		return
	}

	client, err := h.Providers.Get(provider)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return
	}

	providerToken, err := client.Exchange(ctx, r.URL.Query().Get("code"), authReq.CodeVerifier)
	if err != nil {
		fail(err)
		return
	}

	attrs, err := client.FetchAttributes(ctx, providerToken)
	if err != nil {
		fail(err)
		return
	}

	user, err := h.UserService.Process(ctx, provider, attrs)
	if err != nil {
		fail(err)
		return
	}

	pair, successURL, err := h.LoginService.CompleteLogin(ctx, user, redirectURI)
	if errors.Is(err, service.ErrUnauthorizedRedirect) {
		// Fatal, not a redirect outcome: no token was minted and no cookie
		// is touched. The caller must fix its redirect_uri.
		writeError(w, http.StatusBadRequest, "unauthorized_redirect_uri", err.Error())
		return
	}
	if err != nil {
		fail(err)
		return
	}

	h.AuthRequests.Remove(w, r)
	httpx.SetCookie(w, oauth2.RefreshTokenCookie, pair.RefreshToken, int(h.RefreshTTL.Seconds()))
	http.Redirect(w, r, successURL, http.StatusFound)
}
