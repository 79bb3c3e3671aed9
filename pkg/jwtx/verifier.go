package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Algorithms accepted in the header. Required.
	Algorithms []string

	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Use the token must declare (UseAccess or UseSession). Empty means "don't care".
	Use string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Renewable reports whether a verification error may be cured by renewing
// the token. Only expiry qualifies; forged or garbled tokens are terminal.
func Renewable(err error) bool {
	return errors.Is(err, ErrExpired)
}

// KeySetVerifier verifies tokens against the keys held in a KeySet.
type KeySetVerifier struct {
	keys   *KeySet
	opts   VerifyOptions
	parser *jwt.Parser
}

// NewVerifier builds a verifier bound to keys and opts.
func NewVerifier(keys *KeySet, opts VerifyOptions) *KeySetVerifier {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(opts.Algorithms),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if len(opts.Audience) > 0 {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience[0]))
	}
	if opts.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(opts.Leeway))
	}
	if opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(opts.Now))
	}

	return &KeySetVerifier{
		keys:   keys,
		opts:   opts,
		parser: jwt.NewParser(parserOpts...),
	}
}

// Verify validates the JWT string and returns its parsed Claims. The error
// is always one of the package sentinels so callers can tell an expired
// token from a forged one.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	token, err := v.parser.ParseWithClaims(tokenStr, &claims, v.keyFunc)
	if err != nil {
		return Claims{}, classify(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if v.opts.Use != "" && claims.Use != v.opts.Use {
		return Claims{}, fmt.Errorf("%w: token use %q", ErrInvalidClaim, claims.Use)
	}

	return claims, nil
}

func (v *KeySetVerifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrUnknownKID
	}
	key, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}
	return key, nil
}

// classify maps jwt/v5 errors onto our sentinels. Signature checks run before
// claim checks in the parser, so a forged expired token reports ErrInvalidSig.
func classify(err error) error {
	var sentinel error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		sentinel = ErrMalformed
	case errors.Is(err, ErrUnknownKID):
		sentinel = ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		sentinel = ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		sentinel = ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		sentinel = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		sentinel = ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		sentinel = ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		sentinel = ErrAudience
	case errors.Is(err, ErrInvalidClaim),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		sentinel = ErrInvalidClaim
	default:
		sentinel = ErrMalformed
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
