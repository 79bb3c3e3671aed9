package authsdk

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIError_WriteAndParse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewValidationError(map[string]string{"email": "is required"}).WriteError(rec)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{
		"error": "validation_error",
		"error_description": "request validation failed",
		"fields": {"email": "is required"}
	}`, rec.Body.String())

	err := parseErrorResponse(rec.Result(), rec.Body.Bytes())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "is required", apiErr.Fields["email"])
}

func TestAPIError_Is(t *testing.T) {
	t.Parallel()

	parsed := &APIError{StatusCode: http.StatusBadRequest, Code: ErrorCodeEmailTaken, Description: "whatever"}
	require.ErrorIs(t, parsed, ErrEmailTaken)
	require.NotErrorIs(t, parsed, ErrInvalidCredentials)
	require.ErrorIs(t, parsed, &APIError{Code: ErrorCodeEmailTaken})
	require.NotErrorIs(t, parsed, &APIError{StatusCode: http.StatusConflict, Code: ErrorCodeEmailTaken})
	require.False(t, errors.Is(parsed, ErrSessionExpired))
}

func TestParseErrorResponse_Fallback(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}
