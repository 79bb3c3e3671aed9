package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
)

// RefreshHandler trades the refresh cookie for a new access token.
type RefreshHandler struct {
	Renewer session.Renewer
	Metrics *metrics.Metrics
}

// ServeHTTP handles POST /v1/auth/refresh.
//
//	@Summary		Renew the access token
//	@Description	Reads the HTTP-only refresh_token cookie; no body is required.
//	@Description	The cookie is rotated on every renewal. A revoked cookie replayed after the reuse grace window revokes the whole session.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	authsdk.TokenResponse	"New access token"
//	@Failure		401	{object}	authsdk.APIError		"invalid_grant: refresh cookie missing, expired or revoked"
//	@Failure		429	{object}	authsdk.APIError		"rate_limit_exceeded"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	grant, err := h.Renewer.Renew(r.Context(), w, r)
	if err != nil {
		h.Metrics.Renewal(failureOutcome(err))
		writeServiceError(w, r, "refresh", err)
		return
	}

	h.Metrics.Renewal("success")
	writeGrant(w, grant)
}
