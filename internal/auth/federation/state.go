package federation

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
)

const (
	StateCookieName = "federation_state"
	stateCookiePath = "/v1/auth/federated/"
	stateTTL        = 10 * time.Minute
)

// IssueState sets a short-lived state cookie bound to provider and returns
// the value to carry through the provider round trip.
func IssueState(w http.ResponseWriter, provider string, secure bool) (string, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    provider + "." + state,
		Path:     stateCookiePath,
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// CheckState compares the callback state with the cookie in constant time
// and clears the cookie either way.
func CheckState(w http.ResponseWriter, r *http.Request, provider string, secure bool) bool {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	got := r.URL.Query().Get("state")
	c, err := r.Cookie(StateCookieName)
	if err != nil || got == "" {
		return false
	}
	return cryptox.TokensEqual(c.Value, provider+"."+got)
}
