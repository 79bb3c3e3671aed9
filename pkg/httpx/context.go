package httpx

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFromContext returns the claims placed by the authorization gate.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}

// UserIDFromContext returns the subject of the authenticated caller, or "".
func UserIDFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Subject
	}
	return ""
}
