package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/gatehouse/internal/auth/federation"
	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// FederatedHandler runs sign-in through an external identity provider.
type FederatedHandler struct {
	Providers  *federation.Registry
	Federation *service.FederationService
	Strategy   session.Strategy
	Metrics    *metrics.Metrics

	// PostLoginPath receives the browser after a successful callback.
	PostLoginPath string
	// LoginPath receives browsers whose callback failed.
	LoginPath     string
	SecureCookies bool
}

// HandleStart handles GET /v1/auth/federated/{provider}.
//
//	@Summary		Start federated sign-in
//	@Description	Sets a short-lived state cookie and redirects the browser to the identity provider.
//	@Tags			federation
//	@Param			provider	path	string	true	"Provider name, e.g. google"
//	@Success		302			"Redirect to the provider"
//	@Failure		404			{object}	authsdk.APIError	"not_found: unknown provider"
//	@Router			/v1/auth/federated/{provider} [get].
func (h *FederatedHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		authsdk.ErrUnknownProvider.WriteError(w)
		return
	}

	state, err := federation.IssueState(w, p.Name(), h.SecureCookies)
	if err != nil {
		slogx.FromContext(r.Context()).Error("federation state failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback handles GET /v1/auth/federated/{provider}/callback.
//
//	@Summary		Complete federated sign-in
//	@Description	Verifies the state cookie, redeems the authorization code, links or provisions the local account and establishes a session.
//	@Description	Accounts are linked by verified email on first sign-in and by provider subject afterwards.
//	@Tags			federation
//	@Param			provider	path	string	true	"Provider name, e.g. google"
//	@Param			code		query	string	true	"Authorization code"
//	@Param			state		query	string	true	"State issued by the start endpoint"
//	@Success		303			"Redirect to the post-login path with session material set"
//	@Failure		401			{object}	authsdk.APIError	"access_denied"
//	@Failure		404			{object}	authsdk.APIError	"not_found: unknown provider"
//	@Failure		503			{object}	authsdk.APIError	"temporarily_unavailable"
//	@Router			/v1/auth/federated/{provider}/callback [get].
func (h *FederatedHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		authsdk.ErrUnknownProvider.WriteError(w)
		return
	}
	method := "federated:" + p.Name()

	if !federation.CheckState(w, r, p.Name(), h.SecureCookies) {
		log.Info("federated login rejected", slog.String("provider", p.Name()), slog.String("reason", "state_mismatch"))
		h.fail(w, r, method, "state_mismatch")
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Info("federated login rejected", slog.String("provider", p.Name()), slog.String("reason", "provider_error"), slog.String("error", e))
		h.fail(w, r, method, "provider_error")
		return
	}

	assertion, err := p.Exchange(ctx, q.Get("code"))
	if err != nil {
		log.Warn("federated exchange failed", slog.String("provider", p.Name()), "err", err)
		h.fail(w, r, method, "exchange_failed")
		return
	}

	id, err := h.Federation.Resolve(ctx, assertion)
	switch {
	case errors.Is(err, service.ErrAuthentication):
		h.fail(w, r, method, failureOutcome(err))
		return
	case errors.Is(err, store.ErrUnavailable):
		h.Metrics.AuthAttempt(method, "unavailable")
		writeServiceError(w, r, "federated login", err)
		return
	case err != nil:
		h.Metrics.AuthAttempt(method, "error")
		writeServiceError(w, r, "federated login", err)
		return
	}

	if _, err := h.Strategy.Establish(ctx, w, id); err != nil {
		h.Metrics.AuthAttempt(method, failureOutcome(err))
		writeServiceError(w, r, "establish session", err)
		return
	}
	h.Metrics.AuthAttempt(method, "success")

	target := h.PostLoginPath
	if target == "" {
		target = "/"
	}
	httpx.NoCache(w)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail answers a failed callback. Browsers go back to the login page, API
// callers get a generic 401.
func (h *FederatedHandler) fail(w http.ResponseWriter, r *http.Request, method, outcome string) {
	h.Metrics.AuthAttempt(method, outcome)
	if httpx.WantsHTML(r) && h.LoginPath != "" {
		http.Redirect(w, r, h.LoginPath+"?"+url.Values{"error": {authsdk.ErrorCodeAccessDenied}}.Encode(), http.StatusSeeOther)
		return
	}
	authsdk.ErrFederationFailed.WriteError(w)
}
