package jwtx

import (
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK represents a public key in JSON Web Key format (RFC 7517).
type JWK struct {
	Kty string `json:"kty"`           // key type: "OKP" or "RSA"
	Use string `json:"use,omitempty"` // "sig"
	Alg string `json:"alg,omitempty"` // "EdDSA", "RS256"
	Kid string `json:"kid,omitempty"`

	// RSA
	N string `json:"n,omitempty"` // modulus (base64url)
	E string `json:"e,omitempty"` // exponent (base64url)

	// OKP
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
}

// JWKS is a JSON Web Key Set (RFC 7517).
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewRSAJWK builds a JWK for an RSA public key.
func NewRSAJWK(kid, use, alg string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: use,
		Alg: alg,
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// NewEd25519JWK builds a JWK for an Ed25519 public key ("OKP" key type).
func NewEd25519JWK(kid, use, alg string, pub ed25519.PublicKey) JWK {
	return JWK{
		Kty: "OKP",
		Use: use,
		Alg: alg,
		Kid: kid,
		Crv: "Ed25519",
		X:   base64.RawURLEncoding.EncodeToString(pub),
	}
}
