package http

import (
	"net/http"

	"github.com/teamlapse/socialauth/internal/auth/store"
	"github.com/teamlapse/socialauth/pkg/httpx"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

type MeHandler struct {
	Store store.Store
}

// UserResponse is the authenticated caller's own profile.
type UserResponse struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	EmailVerified   bool   `json:"email_verified"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Provider        string `json:"provider"`
	Role            string `json:"role"`
}

// ServeHTTP returns the authenticated user's profile.
//
//	@Summary		Get own profile
//	@Description	Returns the profile of the user identified by the bearer token.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	ErrorResponse	"Invalid or missing access token"
//	@Router			/api/v1/users/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	user, err := h.Store.Users().GetUserByUserID(ctx, principal.Subject)
	if err != nil {
		log.Warn("failed to load user", "user_id", principal.Subject, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserResponse{
		UserID:          user.UserID,
		Username:        user.Username,
		Email:           user.Email,
		EmailVerified:   user.EmailVerified,
		ProfileImageURL: user.ProfileImageURL,
		Provider:        user.Provider.String(),
		Role:            string(user.Role),
	})
}
