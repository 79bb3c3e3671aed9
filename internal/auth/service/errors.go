package service

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrAuthentication is the umbrella for every credential or federation
	// failure. Callers must present all of them with one generic message.
	ErrAuthentication = errors.New("authentication_failed")

	// ErrUserNotFound and ErrInvalidCredential say why authentication failed.
	// Both wrap ErrAuthentication and are only meant for logs.
	ErrUserNotFound      = fmt.Errorf("%w: user_not_found", ErrAuthentication)
	ErrInvalidCredential = fmt.Errorf("%w: invalid_credential", ErrAuthentication)

	// ErrEmailTaken is the conflict raised when the email already belongs to
	// an account, including when two registrations race.
	ErrEmailTaken = errors.New("email_taken")

	ErrValidation = errors.New("validation_error")

	// ErrInvalidRefresh covers a missing, unknown, expired or revoked refresh
	// token. The session must be established again.
	ErrInvalidRefresh = errors.New("invalid_refresh_token")

	// ErrRefreshReuse is reported when a rotated refresh token is replayed
	// outside the grace window. The whole session has been revoked.
	ErrRefreshReuse = fmt.Errorf("%w: reuse_detected", ErrInvalidRefresh)
)

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation_error: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
