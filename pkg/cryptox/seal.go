package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var ErrUnseal = errors.New("cryptox: unseal failed")

// Sealer encrypts and authenticates small payloads (session cookies) with
// AES-256-GCM. Output is base64url(nonce || ciphertext || tag).
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte key from material with SHA-256.
func NewSealer(material []byte) (*Sealer, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty sealing key")
	}
	key := sha256.Sum256(material)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext. aad is bound to the ciphertext but not stored;
// the same aad must be passed to Open.
func (s *Sealer) Seal(plaintext, aad []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, plaintext, aad)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Any tampering yields ErrUnseal.
func (s *Sealer) Open(sealed string, aad []byte) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrUnseal
	}
	n := s.aead.NonceSize()
	if len(raw) < n+s.aead.Overhead() {
		return nil, ErrUnseal
	}
	plaintext, err := s.aead.Open(nil, raw[:n], raw[n:], aad)
	if err != nil {
		return nil, ErrUnseal
	}
	return plaintext, nil
}
