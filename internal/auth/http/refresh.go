package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/internal/auth/service"
	"github.com/teamlapse/socialauth/pkg/authtoken"
	"github.com/teamlapse/socialauth/pkg/httpx"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

type RefreshHandler struct {
	LoginService *service.LoginService
	RefreshTTL   time.Duration
}

// ServeHTTP exchanges an expired access token for a fresh one.
//
//	@Summary		Refresh the access token
//	@Description	Requires the expired (but authentic) access token in the
//	@Description	Authorization header and the refresh_token cookie. Rotates
//	@Description	the refresh token when it is close to its own expiry.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	domain.TokenPair
//	@Failure		400	{object}	ErrorResponse	"Access token still valid, or no refresh cookie"
//	@Failure		401	{object}	ErrorResponse	"Token did not verify"
//	@Router			/api/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// The expired access token never passes the bearer middleware, so it
	// is read straight off the header here.
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing bearer access token")
		return
	}
	accessToken := authz[len("Bearer "):]

	refreshCookie, ok := httpx.GetCookie(r, oauth2.RefreshTokenCookie)
	if !ok || refreshCookie.Value == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing refresh_token cookie")
		return
	}

	pair, err := h.LoginService.Refresh(ctx, accessToken, refreshCookie.Value)
	switch {
	case errors.Is(err, authtoken.ErrNotExpired):
		writeError(w, http.StatusBadRequest, "invalid_request", "access token is not expired yet")
		return
	case errors.Is(err, service.ErrInvalidRefresh):
		writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
		return
	case err != nil:
		log.Warn("refresh rejected", "err", err)
		writeError(w, http.StatusUnauthorized, "invalid_token", "access token did not verify")
		return
	}

	if pair.RefreshToken != "" {
		httpx.SetCookie(w, oauth2.RefreshTokenCookie, pair.RefreshToken, int(h.RefreshTTL.Seconds()))
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
