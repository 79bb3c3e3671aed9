package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerificationKey is what a KeySet needs to check this signer's tokens:
	// the public key for asymmetric algorithms, the secret for HMAC.
	VerificationKey() any

	Validate() error
}

// JWKPublisher is implemented by signers whose verification key may be
// published in a JWKS. HMAC signers never implement it.
type JWKPublisher interface {
	PublicJWK() JWK
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}

// NewSignerHS256 creates an HS256 signer from a shared secret of at least
// 32 bytes.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}
