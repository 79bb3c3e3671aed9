package jwtx

import (
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds verification keys in memory, keyed by kid. Only keys that
// came with a JWK are part of the published JWKS.
type KeySet struct {
	mu  sync.RWMutex
	jks JWKS
	pub map[string]any // kid: ed25519.PublicKey | *rsa.PublicKey | []byte
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		pub: make(map[string]any),
	}
}

// AddSigner registers a signer's verification key, and its JWK when the
// signer publishes one.
func (k *KeySet) AddSigner(s Signer) error {
	if p, ok := s.(JWKPublisher); ok {
		return k.AddJWK(p.PublicJWK())
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[s.KID()] = s.VerificationKey()
	return nil
}

// AddJWK adds a JWK to the KeySet and parses it into a usable crypto key.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := parseJWKToKey(j)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	k.jks.Keys = append(k.jks.Keys, j)
	return nil
}

// Get returns the verification key for the given kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a snapshot of the published keys.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	keys := make([]JWK, len(k.jks.Keys))
	copy(keys, k.jks.Keys)
	return JWKS{Keys: keys}
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// ResetFromJWKS replaces all keys from a JWKS, e.g. after fetching an
// identity provider's certificates. Keys of unsupported types are skipped.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	newMap := make(map[string]any, len(jwks.Keys))
	kept := make([]JWK, 0, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := parseJWKToKey(j)
		if errors.Is(err, errUnsupportedKey) {
			continue
		}
		if err != nil {
			return err
		}
		newMap[j.Kid] = key
		kept = append(kept, j)
	}
	if len(newMap) == 0 {
		return ErrNoKey
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.pub = newMap
	k.jks = JWKS{Keys: kept}

	return nil
}

var errUnsupportedKey = errors.New("jwtx: unsupported key")

// parseJWKToKey converts a JWK into a crypto.PublicKey. RSA covers third
// party identity providers, OKP covers our own EdDSA keys.
func parseJWKToKey(j JWK) (any, error) {
	switch j.Kty {
	case "RSA":
		nb, err := base64.RawURLEncoding.DecodeString(j.N)
		if err != nil {
			return nil, err
		}
		eb, err := base64.RawURLEncoding.DecodeString(j.E)
		if err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(nb)
		e := new(big.Int).SetBytes(eb).Int64()
		return &rsa.PublicKey{N: n, E: int(e)}, nil

	case "OKP":
		if j.Crv != "Ed25519" {
			return nil, errors.Join(errUnsupportedKey, errors.New("jwtx: unsupported OKP curve "+j.Crv))
		}
		xb, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, err
		}
		if len(xb) != ed25519.PublicKeySize {
			return nil, errors.New("jwtx: invalid Ed25519 public key size")
		}
		return ed25519.PublicKey(xb), nil

	default:
		return nil, errors.Join(errUnsupportedKey, errors.New("jwtx: unsupported kty "+j.Kty))
	}
}
