package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// MeHandler returns the caller's current identity. It runs behind the gate,
// so claims are always present.
type MeHandler struct {
	Users *service.UserService
}

// ServeHTTP handles GET /v1/me.
//
//	@Summary		Get the signed-in identity
//	@Description	Returns the caller's identity as currently stored; the role may be newer than the one in the token.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.IdentityResponse	"Current identity"
//	@Failure		401	{object}	authsdk.APIError			"invalid_token"
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	id, err := h.Users.GetIdentity(r.Context(), claims.Subject)
	if errors.Is(err, service.ErrUserNotFound) {
		// The account behind a still-valid token is gone.
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}
	if err != nil {
		writeServiceError(w, r, "get identity", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, identityResponse(id))
}
