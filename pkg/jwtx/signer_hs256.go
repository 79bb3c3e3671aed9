package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinHMACSecretSize is the shortest secret NewSignerHS256 accepts.
const MinHMACSecretSize = 32

// HS256Signer signs with a shared secret. Its tokens can only be verified
// by holders of the same secret, so it is never published in a JWKS.
type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHMACSecretSize {
		return nil, errors.New("jwtx: HS256 secret must be at least 32 bytes")
	}
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &HS256Signer{kid: kid, secret: cp}, nil
}

func (s *HS256Signer) Alg() string { return AlgorithmHS256 }
func (s *HS256Signer) KID() string { return s.kid }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

func (s *HS256Signer) VerificationKey() any { return s.secret }

func (s *HS256Signer) Validate() error {
	if len(s.secret) < MinHMACSecretSize {
		return errors.New("jwtx: HS256 secret too short")
	}
	return nil
}
