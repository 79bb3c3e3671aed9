package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrInvalidHash      = errors.New("invalid hash format")
)

const argon2Prefix = "$argon2id$"

// HashPassword generates a PHC-format Argon2id hash string including salt and parameters.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		b64Salt,
		b64Hash,
	), nil
}

// VerifyPassword compares a plaintext password against a stored hash in
// constant time. Argon2id PHC strings and bcrypt hashes ($2a$, $2b$, $2y$)
// are accepted; bcrypt hashes are unpeppered.
func VerifyPassword(password, encodedHash string) error {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return verifyArgon2(password, encodedHash)
	case isBcrypt(encodedHash):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown scheme", ErrInvalidHash)
	}
}

// NeedsRehash reports whether a stored hash should be replaced with a fresh
// HashPassword result after a successful verification.
func NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}
	p, err := parseArgon2(encodedHash)
	if err != nil {
		return true
	}
	return p.memory != memory || p.iterations != iterations || p.parallelism != parallelism ||
		len(p.hash) != keyLength
}

// EqualizeTiming burns one Argon2id verification so that a lookup miss costs
// the same as a wrong password.
func EqualizeTiming(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("gatehouse-timing-equalizer")
	})
	if dummyHash != "" {
		_ = VerifyPassword(password, dummyHash)
	}
}

var (
	dummyOnce sync.Once
	dummyHash string
)

func isBcrypt(h string) bool {
	return strings.HasPrefix(h, "$2a$") || strings.HasPrefix(h, "$2b$") || strings.HasPrefix(h, "$2y$")
}

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// parseArgon2 splits $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func parseArgon2(encodedHash string) (argon2Params, error) {
	var p argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return p, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return p, fmt.Errorf("%w: not argon2id", ErrInvalidHash)
	}
	if parts[2] != "v=19" {
		return p, fmt.Errorf("%w: wrong version", ErrInvalidHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, fmt.Errorf("%w: failed to parse parameters: %v", ErrInvalidHash, err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, fmt.Errorf("%w: failed to decode salt: %v", ErrInvalidHash, err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return p, fmt.Errorf("%w: failed to decode hash: %v", ErrInvalidHash, err)
	}
	if len(p.hash) == 0 {
		return p, fmt.Errorf("%w: empty hash", ErrInvalidHash)
	}
	return p, nil
}

func verifyArgon2(password, encodedHash string) error {
	p, err := parseArgon2(encodedHash)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+GetPepper()),
		p.salt,
		p.iterations,
		p.memory,
		p.parallelism,
		uint32(len(p.hash)), // #nosec G115 - If this overflows we have bigger problems
	)

	if subtle.ConstantTimeCompare(computed, p.hash) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// GeneratePassword returns a random 16 character alphanumeric password.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 16
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
