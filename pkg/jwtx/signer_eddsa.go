package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSASigner implements the Signer interface using Ed25519.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

func newEdDSASigner(kid string, pemKey []byte) (*EdDSASigner, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}

	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not Ed25519 private key")
	}

	return &EdDSASigner{
		kid: kid,
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

func (s *EdDSASigner) Alg() string { return AlgorithmEdDSA }
func (s *EdDSASigner) KID() string { return s.kid }

func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *EdDSASigner) VerificationKey() any { return s.pub }

// PublicJWK returns the key as published on /.well-known/jwks.json.
func (s *EdDSASigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", AlgorithmEdDSA, s.pub)
}

func (s *EdDSASigner) Validate() error {
	if s.key == nil || s.pub == nil {
		return errors.New("jwtx: nil Ed25519 key")
	}
	if len(s.key) != ed25519.PrivateKeySize {
		return errors.New("jwtx: invalid Ed25519 private key size")
	}
	if len(s.pub) != ed25519.PublicKeySize {
		return errors.New("jwtx: invalid Ed25519 public key size")
	}
	return nil
}
