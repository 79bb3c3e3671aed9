package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// RegisterHandler creates password accounts.
type RegisterHandler struct {
	Credentials *service.CredentialService
	Metrics     *metrics.Metrics
}

// ServeHTTP handles POST /v1/auth/register.
//
//	@Summary		Register an account
//	@Description	Creates a password account with the default "user" role.
//	@Description	Missing or malformed fields return 400 validation_error with per-field detail; an email that already has an account (case-insensitive) returns 400 email_taken.
//	@Tags			auth
//	@Accept			json
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Registration details"
//	@Success		201		{object}	authsdk.IdentityResponse	"The new identity"
//	@Failure		400		{object}	authsdk.APIError			"validation_error or email_taken"
//	@Failure		429		{object}	authsdk.APIError			"rate_limit_exceeded"
//	@Failure		503		{object}	authsdk.APIError			"temporarily_unavailable"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	_, err := decodeBody(w, r, &req, func(get func(string) string) {
		req.Name, req.Email, req.Password = get("name"), get("email"), get("password")
	})
	if err != nil {
		h.Metrics.Registration("invalid_request")
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	id, err := h.Credentials.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Metrics.Registration(failureOutcome(err))
		writeServiceError(w, r, "registration", err)
		return
	}

	h.Metrics.Registration("success")
	httpx.WriteJSON(w, http.StatusCreated, identityResponse(id))
}

func identityResponse(id domain.Identity) authsdk.IdentityResponse {
	return authsdk.IdentityResponse{
		ID:    id.ID,
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role.String(),
	}
}
