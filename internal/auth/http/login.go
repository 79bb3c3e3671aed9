package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// LoginHandler authenticates email and password and establishes a session
// with the configured strategy.
type LoginHandler struct {
	Credentials *service.CredentialService
	Strategy    session.Strategy
	Metrics     *metrics.Metrics
}

// ServeHTTP handles POST /v1/auth/login.
//
//	@Summary		Sign in with email and password
//	@Description	With the cookie strategy the response carries the identity and sets an HTTP-only "session" cookie.
//	@Description	With the bearer strategy the response carries an access token and sets an HTTP-only "refresh_token" cookie scoped to /v1/auth.
//	@Description	A form post with a relative callback_url is answered with 303 to that path.
//	@Description	Every credential failure returns the same 401 so callers cannot tell which accounts exist.
//	@Tags			auth
//	@Accept			json
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse	"Bearer strategy; cookie strategy returns authsdk.IdentityResponse"
//	@Success		303		"Redirect to callback_url (form posts)"
//	@Failure		400		{object}	authsdk.APIError	"validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_credentials"
//	@Failure		429		{object}	authsdk.APIError	"rate_limit_exceeded"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	isForm, err := decodeBody(w, r, &req, func(get func(string) string) {
		req.Email, req.Password, req.CallbackURL = get("email"), get("password"), get("callback_url")
	})
	if err != nil {
		h.Metrics.AuthAttempt("password", "invalid_request")
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	id, err := h.Credentials.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Metrics.AuthAttempt("password", failureOutcome(err))
		writeServiceError(w, r, "login", err)
		return
	}

	grant, err := h.Strategy.Establish(r.Context(), w, id)
	if err != nil {
		h.Metrics.AuthAttempt("password", failureOutcome(err))
		writeServiceError(w, r, "establish session", err)
		return
	}
	h.Metrics.AuthAttempt("password", "success")

	if isForm && safeCallback(req.CallbackURL) {
		httpx.NoCache(w)
		http.Redirect(w, r, req.CallbackURL, http.StatusSeeOther)
		return
	}
	writeGrant(w, grant)
}

// writeGrant answers with a token body for bearer grants and with the bare
// identity otherwise.
func writeGrant(w http.ResponseWriter, g *session.Grant) {
	user := identityResponse(g.Identity)
	if g.AccessToken == "" {
		httpx.WriteJSON(w, http.StatusOK, user)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: g.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(g.ExpiresIn.Seconds()),
		User:        &user,
	})
}
