package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody.
func WriteError(w http.ResponseWriter, code int, errCode, desc string) {
	WriteJSON(w, code, ErrorBody{Error: errCode, Description: desc})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// BearerToken extracts the credential from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WriteBearerError writes an RFC 6750 challenge alongside a JSON error body.
func WriteBearerError(w http.ResponseWriter, code int, errCode, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+errCode+`", error_description="`+desc+`"`)
	WriteError(w, code, errCode, desc)
}

// WantsHTML reports whether r looks like a top-level browser navigation,
// which should be redirected rather than answered with a status code.
func WantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
