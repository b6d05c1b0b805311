package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *config.Store {
	t.Helper()
	s := config.NewStore(filepath.Join(t.TempDir(), "icon"))
	require.NoError(t, s.EnsureLayout())
	return s
}

func writeRaw(t *testing.T, s *config.Store, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.ConfigPath(), []byte(body), 0o600))
}

// ---------------------------------------------------------------------------
// EnsureLayout
// ---------------------------------------------------------------------------

func TestEnsureLayoutFreshDirectory(t *testing.T) {
	s := newStore(t)

	for _, d := range []string{s.DataDir(), s.KeystoreDir(), s.HistoryDir(), s.TrashDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}

	cfg, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.DefaultNetwork)
	assert.Equal(t, config.ModeReadWrite, cfg.Mode)
	assert.Empty(t, cfg.Keystores)
	assert.Empty(t, cfg.DefaultKeystore)
	assert.Empty(t, cfg.CustomNetworks)
	assert.Empty(t, cfg.SavedAddresses)
}

func TestEnsureLayoutIsIdempotent(t *testing.T) {
	s := newStore(t)

	cfg, err := s.Read()
	require.NoError(t, err)
	cfg.Mode = config.ModeRead
	require.NoError(t, s.Write(cfg))

	require.NoError(t, s.EnsureLayout())

	again, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, config.ModeRead, again.Mode, "existing document must not be replaced")
}

func TestEnsureLayoutFailsOnFileInPlace(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "keystore"), []byte("x"), 0o600))

	err := config.NewStore(base).EnsureLayout()
	assert.ErrorIs(t, err, config.ErrFilesystem)
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

func TestReadRejectsGarbage(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "{{{ not yaml")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
}

func TestReadRejectsEmptyDocument(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
}

func TestReadRejectsUnknownField(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: mainnet\nmode: rw\nsurprise: true\n")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
}

func TestReadRejectsInvalidMode(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: mainnet\nmode: w\nkeystores: []\n")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
	assert.Contains(t, err.Error(), `"w"`)
}

func TestReadRejectsMissingMode(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: mainnet\nkeystores: []\n")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
}

func TestReadRejectsUnknownDefaultNetwork(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: atlantis\nmode: rw\nkeystores: []\n")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
	assert.ErrorIs(t, err, config.ErrUnknownNetwork)
}

func TestReadRejectsDanglingDefaultKeystore(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: mainnet\nmode: rw\nkeystores: []\ndefault_keystore: ghost\n")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
	assert.Contains(t, err.Error(), "ghost")
}

func TestReadRejectsDuplicateAddressesIgnoringCase(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, `default_network: mainnet
mode: rw
keystores:
  - keystore_name: a
    keystore_address: hxaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa
    keystore_filename: a.json
  - keystore_name: b
    keystore_address: HXAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA
    keystore_filename: b.json
`)

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
}

func TestReadAcceptsNullDefaultKeystore(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "custom_networks: {}\ndefault_keystore: null\ndefault_network: lisbon\nkeystores: []\nmode: r\nsaved_addresses: {}\n")

	cfg, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, cfg.DefaultKeystore)
	assert.Equal(t, "lisbon", cfg.DefaultNetwork)
	assert.NotNil(t, cfg.Keystores)
}

func TestReadRejectsMissingKeystores(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: mainnet\nmode: rw\n")

	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrConfigCorrupt)
	assert.Contains(t, err.Error(), "missing keystores")
}

func TestReadTreatsOtherSectionsAsOptional(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "default_network: mainnet\nkeystores: []\nmode: rw\n")

	cfg, err := s.Read()
	require.NoError(t, err)
	assert.NotNil(t, cfg.CustomNetworks)
	assert.NotNil(t, cfg.SavedAddresses)
	assert.Empty(t, cfg.DefaultKeystore)
}

func TestReadNormalizesDefaultPointers(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, `default_keystore: Alice
default_network: " Lisbon"
keystores:
  - keystore_name: alice
    keystore_address: hxaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa
    keystore_filename: alice.json
mode: rw
`)

	cfg, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.DefaultKeystore)
	assert.Equal(t, "lisbon", cfg.DefaultNetwork)
	require.NoError(t, s.Write(cfg))
}

func TestReadMissingFile(t *testing.T) {
	s := config.NewStore(t.TempDir())
	_, err := s.Read()
	assert.ErrorIs(t, err, config.ErrFilesystem)
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

func TestWriteRejectsDanglingDefaultKeystore(t *testing.T) {
	s := newStore(t)
	before, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.DefaultKeystore = "nobody"
	err = s.Write(cfg)
	assert.ErrorIs(t, err, config.ErrConfigInvariant)

	after, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWriteRejectsUnknownDefaultNetwork(t *testing.T) {
	s := newStore(t)
	cfg := config.Default()
	cfg.DefaultNetwork = "not-a-real-net"

	err := s.Write(cfg)
	assert.ErrorIs(t, err, config.ErrConfigInvariant)
	assert.ErrorIs(t, err, config.ErrUnknownNetwork)
}

func TestWriteRoundTripIsIdempotent(t *testing.T) {
	s := newStore(t)
	cfg := config.Default()
	cfg.CustomNetworks["local"] = config.NetworkDescriptor{
		Name: "local", APIEndpoint: "http://localhost:9080", NID: 3, TrackerEndpoint: "http://localhost:8080",
	}
	cfg.Keystores = append(cfg.Keystores,
		config.KeystoreEntry{Name: "zed", Address: "hx" + strings.Repeat("1", 40), Filename: "zed.json"},
		config.KeystoreEntry{Name: "amy", Address: "hx" + strings.Repeat("2", 40), Filename: "amy.json"},
	)
	cfg.DefaultKeystore = "amy"
	cfg.SavedAddresses["bob"] = "hx" + strings.Repeat("3", 40)
	cfg.SavedAddresses["alice"] = "hx" + strings.Repeat("4", 40)
	require.NoError(t, s.Write(cfg))

	first, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := s.Read()
		require.NoError(t, err)
		require.NoError(t, s.Write(got))
	}
	second, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "zed", got.Keystores[0].Name, "insertion order preserved")
	assert.Equal(t, "amy", got.Keystores[1].Name)
}

func TestWriteSetsOwnerOnlyPermissions(t *testing.T) {
	s := newStore(t)
	info, err := os.Stat(s.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteCrashBeforeRenameKeepsPreviousDocument(t *testing.T) {
	s := newStore(t)
	cfg, err := s.Read()
	require.NoError(t, err)
	cfg.Mode = config.ModeRead
	require.NoError(t, s.Write(cfg))
	before, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)

	var pending string
	restore := config.SetReplace(func(tmp, _ string) error {
		pending = tmp
		return errors.New("killed")
	})
	cfg.Mode = config.ModeReadWrite
	err = s.Write(cfg)
	restore()
	assert.ErrorIs(t, err, config.ErrFilesystem)

	after, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, config.ModeRead, got.Mode)

	assert.Equal(t, s.Dir(), filepath.Dir(pending), "pending file lives next to the config")
	assert.NoFileExists(t, pending)
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		if !e.IsDir() {
			assert.Equal(t, config.ConfigFileName, e.Name())
		}
	}
}

// ---------------------------------------------------------------------------
// Update / Reset
// ---------------------------------------------------------------------------

func TestUpdateAbortsOnError(t *testing.T) {
	s := newStore(t)
	boom := errors.New("boom")
	err := s.Update(func(c *config.AppConfig) error {
		c.Mode = config.ModeRead
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cfg, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, config.ModeReadWrite, cfg.Mode)
}

func TestResetRecoversCorruptDocument(t *testing.T) {
	s := newStore(t)
	writeRaw(t, s, "mode: [")
	_, err := s.Read()
	require.ErrorIs(t, err, config.ErrConfigCorrupt)

	require.NoError(t, s.Reset())

	cfg, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.DefaultNetwork)
}
