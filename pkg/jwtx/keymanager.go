package jwtx

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
)

// Supported JWT signing algorithms
const (
	AlgorithmEdDSA = "EdDSA"
	AlgorithmHS256 = "HS256"
)

// KeyManager owns the signing key and the KeySet used to verify tokens this
// instance issued. All signers share one algorithm.
type KeyManager struct {
	KeySet *KeySet

	algorithm string
	opts      KeyManagerOptions

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures the KeyManager for a specific use case.
type KeyManagerOptions struct {
	// Algorithm is AlgorithmEdDSA or AlgorithmHS256.
	Algorithm string

	// Issuer is set on every token and enforced on verification.
	Issuer string

	// Audience is optional; empty means no audience validation.
	Audience []string

	// Leeway tolerated on exp/nbf/iat.
	Leeway time.Duration
}

// NewKeyManager wires signers into a KeySet. The first signer is used for
// signing; the rest remain valid for verification only.
func NewKeyManager(opts KeyManagerOptions, signers ...Signer) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	if len(signers) == 0 {
		return nil, errors.New("jwtx: at least one signer is required")
	}

	keyset := NewKeySet()
	for i, s := range signers {
		if s.Alg() != opts.Algorithm {
			return nil, fmt.Errorf("jwtx: signer %d uses %s, expected %s", i+1, s.Alg(), opts.Algorithm)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("jwtx: signer %d: %w", i+1, err)
		}
		if err := keyset.AddSigner(s); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer %d to keyset: %w", i+1, err)
		}
	}

	return &KeyManager{
		KeySet:    keyset,
		algorithm: opts.Algorithm,
		opts:      opts,
		signers:   signers,
	}, nil
}

// NewEphemeralKeyManager generates a single in-memory key. Tokens do not
// survive a restart; intended for tests and local development.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	kid, err := generateRandomKeyID()
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
	}

	var signer Signer
	switch opts.Algorithm {
	case AlgorithmEdDSA:
		pemBytes, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		signer, err = NewSignerEdDSA(kid, pemBytes)
		if err != nil {
			return nil, err
		}
	case AlgorithmHS256:
		secret := make([]byte, MinHMACSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		signer, err = NewSignerHS256(kid, secret)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: EdDSA, HS256)", opts.Algorithm)
	}

	return NewKeyManager(opts, signer)
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// Issuer returns the iss value stamped on tokens.
func (km *KeyManager) Issuer() string { return km.opts.Issuer }

// Audience returns the aud values stamped on tokens.
func (km *KeyManager) Audience() []string { return km.opts.Audience }

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns the active signer.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if len(km.signers) == 0 {
		return nil
	}
	return km.signers[0]
}

// Publishes reports whether the active key belongs in a public JWKS.
func (km *KeyManager) Publishes() bool {
	_, ok := km.GetSigner().(JWKPublisher)
	return ok
}

// Verifier returns a verifier for tokens of the given use.
func (km *KeyManager) Verifier(use string) Verifier {
	return km.verifier(use, nil)
}

func (km *KeyManager) verifier(use string, now func() time.Time) *KeySetVerifier {
	return NewVerifier(km.KeySet, VerifyOptions{
		Algorithms: []string{km.algorithm},
		Issuer:     km.opts.Issuer,
		Audience:   km.opts.Audience,
		Use:        use,
		Leeway:     km.opts.Leeway,
		Now:        now,
	})
}

// VerifierAt is Verifier with a fixed clock, for tests and tooling.
func (km *KeyManager) VerifierAt(use string, now func() time.Time) Verifier {
	return km.verifier(use, now)
}

func generateRandomKeyID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
