package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidGrant       = "invalid_grant"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInsufficientRole   = "insufficient_role"
	ErrorCodeAccessDenied       = "access_denied"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeUnavailable        = "temporarily_unavailable"
	ErrorCodeServerError        = "server_error"
)

// ErrSessionExpired means the session can no longer be renewed and the user
// has to sign in again.
var ErrSessionExpired = errors.New("authsdk: session expired")

// ============================================================================
// APIError
// ============================================================================

// APIError is the JSON error body returned by every endpoint. The server uses
// it to write responses and the SDK to report them.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Code        string            `json:"error"`
	Description string            `json:"error_description"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Code, e.Description, e.Fields)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on the error code, and on the status when target sets one, so
// parsed responses compare equal to the predefined errors below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.StatusCode == 0 || e.StatusCode == t.StatusCode)
}

// WriteError writes this error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, httpx.ErrorBody{
		Error:       e.Code,
		Description: e.Description,
		Fields:      e.Fields,
	})
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrEmailTaken is returned by registration for an address that already
	// has an account, compared case-insensitively.
	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeEmailTaken,
		Description: "an account with this email already exists",
	}

	// ErrInvalidCredentials deliberately does not say whether the email or
	// the password was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidGrant = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidGrant,
		Description: "the refresh token is missing, expired or revoked",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	ErrInsufficientRole = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInsufficientRole,
		Description: "this resource requires a higher role",
	}

	// ErrFederationFailed covers every failed federated sign-in.
	ErrFederationFailed = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeAccessDenied,
		Description: "federated sign-in failed",
	}

	ErrUnknownProvider = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "unknown identity provider",
	}

	ErrUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeUnavailable,
		Description: "the service is temporarily unavailable, try again later",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewValidationError reports field level problems with a request body.
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "request validation failed",
		Fields:      fields,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response body into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
