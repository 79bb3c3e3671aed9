package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// Identity headers set on proxied requests. Copies sent by the client are
// always removed.
const (
	HeaderUserID    = "X-Auth-User-Id"
	HeaderUserName  = "X-Auth-User-Name"
	HeaderUserEmail = "X-Auth-User-Email"
	HeaderUserRole  = "X-Auth-User-Role"
)

var identityHeaders = []string{HeaderUserID, HeaderUserName, HeaderUserEmail, HeaderUserRole}

// NewIdentityProxy forwards requests to upstream with the identity the gate
// admitted. Requests the policy leaves open are forwarded anonymously.
func NewIdentityProxy(upstream *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host

			for _, h := range identityHeaders {
				pr.Out.Header.Del(h)
			}
			claims, ok := httpx.ClaimsFromContext(pr.In.Context())
			if !ok {
				return
			}
			id := session.IdentityFromClaims(claims)
			pr.Out.Header.Set(HeaderUserID, headerValue(id.ID))
			pr.Out.Header.Set(HeaderUserName, headerValue(id.Name))
			pr.Out.Header.Set(HeaderUserEmail, headerValue(id.Email))
			pr.Out.Header.Set(HeaderUserRole, headerValue(id.Role.String()))
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slogx.FromContext(r.Context()).Warn("upstream request failed",
				slog.String("upstream", upstream.Host),
				"err", err,
			)
			(&authsdk.APIError{
				StatusCode:  http.StatusBadGateway,
				Code:        authsdk.ErrorCodeUnavailable,
				Description: "the upstream application is unavailable",
			}).WriteError(w)
		},
	}
}

// headerValue removes control characters. The transport refuses to send a
// header value containing CR, LF or NUL, so one bad name would fail every
// proxied request for that user.
func headerValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
