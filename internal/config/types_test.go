package config_test

import (
	"testing"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "mywallet", config.NormalizeName(" MyWallet "))
	assert.Equal(t, "mywallet", config.NormalizeName("My Wallet"))
	assert.Equal(t, "", config.NormalizeName(" \t "))
}

func TestBuiltinNetworksHaveDistinctNIDs(t *testing.T) {
	seen := map[int64]string{}
	for _, n := range config.BuiltinNetworks() {
		require.NoError(t, config.ValidateNetwork(n))
		_, dup := seen[n.NID]
		assert.False(t, dup, "nid %d reused by %s", n.NID, n.Name)
		seen[n.NID] = n.Name
	}
	assert.Len(t, seen, 4)
}

func TestBuiltinNetworksReturnsCopy(t *testing.T) {
	nets := config.BuiltinNetworks()
	nets[0].APIEndpoint = "http://evil"
	n, ok := config.BuiltinNetwork("mainnet")
	require.True(t, ok)
	assert.Equal(t, "https://ctz.solidwallet.io", n.APIEndpoint)
}

func TestLookupNetworkPrefersBuiltin(t *testing.T) {
	cfg := config.Default()
	cfg.CustomNetworks["local"] = config.NetworkDescriptor{Name: "local", APIEndpoint: "http://127.0.0.1:9080", NID: 3, TrackerEndpoint: "http://127.0.0.1"}

	n, err := cfg.LookupNetwork("MainNet")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.NID)

	n, err = cfg.LookupNetwork("local")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.NID)

	_, err = cfg.LookupNetwork("nowhere")
	assert.ErrorIs(t, err, config.ErrUnknownNetwork)
}

func TestFindKeystoreIgnoresCase(t *testing.T) {
	cfg := config.Default()
	cfg.Keystores = []config.KeystoreEntry{{Name: "alice", Address: "hxABC", Filename: "alice.json"}}

	e, i, ok := cfg.FindKeystore(" Alice")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, "alice.json", e.Filename)

	_, _, ok = cfg.FindKeystoreByAddress("hxabc")
	assert.True(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	cfg := config.Default()
	cfg.SavedAddresses["a"] = "hx1"
	cp := cfg.Clone()
	cp.SavedAddresses["a"] = "hx2"
	cp.Keystores = append(cp.Keystores, config.KeystoreEntry{Name: "x"})
	assert.Equal(t, "hx1", cfg.SavedAddresses["a"])
	assert.Empty(t, cfg.Keystores)
}

func TestValidateCustomNetwork(t *testing.T) {
	cases := map[string]config.NetworkDescriptor{
		"uppercase name": {Name: "Local", APIEndpoint: "http://a", NID: 3, TrackerEndpoint: "http://b"},
		"zero nid":       {Name: "local", APIEndpoint: "http://a", NID: 0, TrackerEndpoint: "http://b"},
		"bad scheme":     {Name: "local", APIEndpoint: "ftp://a", NID: 3, TrackerEndpoint: "http://b"},
		"no host":        {Name: "local", APIEndpoint: "http://a", NID: 3, TrackerEndpoint: "https://"},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, config.ValidateNetwork(n))
		})
	}
}

func TestValidateRejectsShadowedBuiltin(t *testing.T) {
	cfg := config.Default()
	cfg.CustomNetworks["mainnet"] = config.NetworkDescriptor{Name: "mainnet", APIEndpoint: "http://a", NID: 9, TrackerEndpoint: "http://b"}
	assert.Error(t, config.Validate(cfg))
}

func TestPasswordEnvVar(t *testing.T) {
	assert.Equal(t, "ICON_CLI_PASSWORD_ALICE", config.PasswordEnvVar("alice"))
	assert.Equal(t, "ICON_CLI_PASSWORD_MY_KEY", config.PasswordEnvVar("my-key"))
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("ICON_CLI_CONFIG_DIR", "/tmp/icon-test")
	env, err := config.LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/icon-test", env.ConfigDir)
	assert.Equal(t, "warn", env.LogLevel)
	assert.Equal(t, config.HTTPTimeout, env.HTTPTimeout)

	dir, err := config.ResolveDir("", env)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/icon-test", dir)

	dir, err = config.ResolveDir("/explicit", env)
	require.NoError(t, err)
	assert.Equal(t, "/explicit", dir)
}
