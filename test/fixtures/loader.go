// Package fixtures builds on-disk inputs shared by the integration and
// end-to-end tests.
package fixtures

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
	"github.com/stretchr/testify/require"
)

// Well-known test accounts. Never fund these.
const (
	AliceKey = "592eb276d534e2c41a2d9356c0ab262dc233d87e4dd71ce705ec130a8d27ff0c"
	BobKey   = "0d3bd8e2a4b0f4ab8b3f0d53c3f1bde8b1d4f1a7e7f10b7c9f0e3a0a4b5c6d7e"

	Passphrase = "fixture-passphrase"
)

// Keystore encrypts hexKey under Passphrase with light scrypt parameters,
// writes it to a temp dir as <name>.json and returns the path and address.
func Keystore(t testing.TB, name, hexKey string) (path, address string) {
	t.Helper()
	w, err := wallet.FromHex(hexKey)
	require.NoError(t, err, "fixture key %s", name)
	data, err := w.Encrypt(Passphrase, wallet.LightScryptN, wallet.LightScryptP)
	require.NoError(t, err)

	path = filepath.Join(t.TempDir(), name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, w.Address()
}

// CSV writes rows, one per line, to a temp file and returns its path.
func CSV(t testing.TB, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o600))
	return path
}
