package http

import (
	"net/http"

	xoauth2 "golang.org/x/oauth2"

	"github.com/teamlapse/socialauth/internal/auth/domain"
	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/pkg/cryptox"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

type AuthorizationHandler struct {
	Providers    *oauth2.Registry
	AuthRequests *oauth2.AuthRequestRepository
}

// ServeHTTP begins a login flow against the named provider.
//
//	@Summary		Begin social login
//	@Description	Stores correlation state in short-lived cookies and redirects
//	@Description	the browser to the provider's consent screen. An optional
//	@Description	redirect_uri query parameter chooses the post-login destination.
//	@Tags			Login
//	@Param			provider		path	string	true	"google, facebook, naver or kakao"
//	@Param			redirect_uri	query	string	false	"post-login destination"
//	@Success		302
//	@Failure		404	{object}	ErrorResponse	"Unknown provider"
//	@Router			/oauth2/authorization/{provider} [get].
func (h *AuthorizationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider, err := domain.ParseProviderType(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return
	}

	client, err := h.Providers.Get(provider)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return
	}

	state := cryptox.MustGenerateToken(cryptox.TokenSize128)
	verifier := xoauth2.GenerateVerifier()

	err = h.AuthRequests.Save(w, r, &oauth2.AuthRequest{
		Provider:     provider,
		State:        state,
		CodeVerifier: verifier,
	})
	if err != nil {
		log.Error("failed to persist authorization request", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	log.Info("login started", "provider", provider.String())
	http.Redirect(w, r, client.AuthCodeURL(state, verifier), http.StatusFound)
}
