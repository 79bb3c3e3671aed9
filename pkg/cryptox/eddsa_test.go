package cryptox_test

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateEd25519Key(t *testing.T) {
	t.Parallel()

	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	key, err := cryptox.ParseEd25519Key(pemBytes)
	require.NoError(t, err)
	require.Len(t, key, ed25519.PrivateKeySize)

	_, err = cryptox.ParseEd25519Key([]byte("not pem"))
	require.Error(t, err)
}

func TestLoadOrGenerateEd25519Key(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys", "signing.pem")

	first, err := cryptox.LoadOrGenerateEd25519Key(path)
	require.NoError(t, err)

	second, err := cryptox.LoadOrGenerateEd25519Key(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))
	_, err = cryptox.LoadOrGenerateEd25519Key(path)
	require.Error(t, err)
}
