package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// LogoutHandler clears session material.
type LogoutHandler struct {
	Strategy session.Strategy
}

// ServeHTTP handles POST /v1/auth/logout.
//
//	@Summary		Sign out
//	@Description	Clears the session or refresh cookie. With the bearer strategy the refresh token's session is also revoked server-side.
//	@Description	Logging out without a session is not an error.
//	@Tags			auth
//	@Success		204	"Signed out"
//	@Failure		503	{object}	authsdk.APIError	"temporarily_unavailable"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Strategy.Terminate(r.Context(), w, r); err != nil {
		writeServiceError(w, r, "logout", err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
