package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var (
	pepperMu   sync.Mutex
	pepper     string
	pepperFile string
)

// SetPepperPath configures where the pepper is loaded from (or written to on
// first use). It resets any pepper already loaded.
func SetPepperPath(file string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepperFile = file
	pepper = ""
}

// GetPepper returns the process-wide pepper, loading it on first use.
func GetPepper() string {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper != "" {
		return pepper
	}

	secret, err := LoadOrGenerateSecret(pepperFile, keyLength)
	if err != nil {
		slog.Error("failed to load or generate pepper", slog.Any("err", err))
		os.Exit(1)
	}
	pepper = secret

	return pepper
}

// LoadOrGenerateSecret reads a base64url secret from file, creating the file
// (mode 0600) with size random bytes when it does not exist yet.
func LoadOrGenerateSecret(file string, size int) (string, error) {
	if file == "" {
		return "", errors.New("cryptox: secret file path is empty")
	}
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", err
	}

	data, err := os.ReadFile(file)
	if err == nil {
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("cryptox: secret file %s is empty", file)
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(file, []byte(secret), 0600); err != nil {
		return "", err
	}
	return secret, nil
}
