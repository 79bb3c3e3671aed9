package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// writeServiceError maps a service error onto the public error taxonomy.
// Unexpected errors are logged with op and answered with a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := slogx.FromContext(r.Context())

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		authsdk.NewValidationError(ve.Fields).WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrAuthentication):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh), errors.Is(err, session.ErrNoToken):
		authsdk.ErrInvalidGrant.WriteError(w)
	case errors.Is(err, store.ErrUnavailable):
		log.Warn(op+" unavailable", "err", err)
		authsdk.ErrUnavailable.WriteError(w)
	default:
		log.Error(op+" failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// failureOutcome is the metrics label for a failed attempt.
func failureOutcome(err error) string {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, service.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, service.ErrAuthentication):
		return "rejected"
	case errors.Is(err, service.ErrValidation):
		return "validation_error"
	case errors.Is(err, service.ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, service.ErrRefreshReuse):
		return "reuse_detected"
	case errors.Is(err, service.ErrInvalidRefresh), errors.Is(err, session.ErrNoToken):
		return "invalid_grant"
	case errors.Is(err, store.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
