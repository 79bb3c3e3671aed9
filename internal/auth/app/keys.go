package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// InitAuthKeys builds the KeyManager for the configured algorithm.
//
//   - EdDSA: the Ed25519 key is read from AUTH_SIGNING_KEY_FILE and generated
//     on first start. The public half is published at the JWKS endpoint.
//   - HS256: the shared secret comes from AUTH_SECRET, or AUTH_SECRET_FILE
//     which is generated on first start. Nothing is published.
//
// The key id is derived from the key so it stays stable across restarts and
// tokens issued before a restart remain valid. Verification has no leeway:
// this service signs and checks its own tokens against one clock, so a token
// is rejected as soon as it expires.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	var signer jwtx.Signer

	switch cfg.Algorithm {
	case jwtx.AlgorithmEdDSA:
		pemBytes, err := cryptox.LoadOrGenerateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		priv, err := cryptox.ParseEd25519Key(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
		signer, err = jwtx.NewSignerEdDSA(keyID(priv.Public().(ed25519.PublicKey)), pemBytes)
		if err != nil {
			return nil, err
		}

	case jwtx.AlgorithmHS256:
		secret := cfg.Secret
		if secret == "" {
			var err error
			secret, err = cryptox.LoadOrGenerateSecret(cfg.SecretFile, jwtx.MinHMACSecretSize)
			if err != nil {
				return nil, fmt.Errorf("failed to load HS256 secret: %w", err)
			}
		}
		var err error
		signer, err = jwtx.NewSignerHS256(keyID([]byte("hs256:"+secret)), []byte(secret))
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported algorithm %q", cfg.Algorithm)
	}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
	}, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing key loaded",
		"algorithm", km.Algorithm(),
		"kid", signer.KID(),
		"issuer", km.Issuer(),
		"publishes_jwks", km.Publishes(),
	)
	return km, nil
}

// InitCookieSealer loads or generates the key that encrypts session
// cookies.
func InitCookieSealer(cfg Config) (*cryptox.Sealer, error) {
	material, err := cryptox.LoadOrGenerateSecret(cfg.CookieKeyFile, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookie key: %w", err)
	}
	return cryptox.NewSealer([]byte(material))
}

func keyID(material []byte) string {
	sum := sha256.Sum256(material)
	return hex.EncodeToString(sum[:8])
}
