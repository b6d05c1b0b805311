package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx/icxtest"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey  = "592eb276d534e2c41a2d9356c0ab262dc233d87e4dd71ce705ec130a8d27ff0c"
	testPass = "correct horse"
	bobAddr  = "hx0000000000000000000000000000000000000b0b"
	txHash   = "0xab00000000000000000000000000000000000000000000000000000000000001"
)

// cli is one isolated config directory driven through the root command.
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	c := &cli{t: t, dir: t.TempDir()}
	passphraseCache = wallet.NewPassphraseCache(keyring.NewArrayKeyring(nil))
	prompter = ui.NewPrompter(strings.NewReader(""), io.Discard)
	t.Cleanup(func() {
		passphraseCache = nil
		prompter = ui.Stdio
		resetFlags(rootCmd)
	})
	return c
}

// input answers the next prompts with lines.
func (c *cli) input(lines ...string) {
	prompter = ui.NewPrompter(strings.NewReader(strings.Join(lines, "\n")+"\n"), io.Discard)
}

// run executes args with fresh flag values and returns stdout.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", c.dir}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "icon %s", strings.Join(args, " "))
	return out
}

func (c *cli) config() *config.AppConfig {
	c.t.Helper()
	cfg, err := config.NewStore(c.dir).Read()
	require.NoError(c.t, err)
	return cfg
}

// keystoreFile writes an encrypted keystore for testKey and returns its
// path and address.
func (c *cli) keystoreFile(name string) (string, string) {
	c.t.Helper()
	w, err := wallet.FromHex(testKey)
	require.NoError(c.t, err)
	data, err := w.Encrypt(testPass, wallet.LightScryptN, wallet.LightScryptP)
	require.NoError(c.t, err)
	path := filepath.Join(c.t.TempDir(), name+".json")
	require.NoError(c.t, os.WriteFile(path, data, 0o600))
	return path, w.Address()
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// ---------------------------------------------------------------------------
// Bootstrap and config
// ---------------------------------------------------------------------------

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("config", "view")
	assert.Contains(t, out, "default_network: mainnet")
	assert.Contains(t, out, "Config directory: "+c.dir)

	for _, d := range []string{"keystore", "trash", "data", "history"} {
		assert.DirExists(t, filepath.Join(c.dir, d))
	}
}

func TestConfigViewJSON(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("config", "view", "--json")
	assert.Contains(t, out, `"default_network": "mainnet"`)
}

func TestConfigMode(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "rw\n", c.mustRun("config", "mode"))

	c.mustRun("config", "mode", "r")
	assert.Equal(t, config.ModeRead, c.config().Mode)

	_, err := c.run("config", "mode", "x")
	assert.Error(t, err)
	assert.Equal(t, config.ModeRead, c.config().Mode)
}

func TestConfigResetAsksFirst(t *testing.T) {
	c := newCLI(t)
	c.mustRun("config", "mode", "r")

	c.input("n")
	out := c.mustRun("config", "reset")
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, config.ModeRead, c.config().Mode)

	c.mustRun("config", "reset", "--yes")
	assert.Equal(t, config.ModeReadWrite, c.config().Mode)
}

func TestCorruptConfigExitCode(t *testing.T) {
	c := newCLI(t)
	c.mustRun("config", "view")
	require.NoError(t, os.WriteFile(filepath.Join(c.dir, config.ConfigFileName), []byte("mode: [\n"), 0o600))

	_, err := c.run("config", "view")
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
}

// ---------------------------------------------------------------------------
// Keystores
// ---------------------------------------------------------------------------

func TestKeystoreAddListUseRemove(t *testing.T) {
	c := newCLI(t)
	path, addr := c.keystoreFile("alice")

	out := c.mustRun("config", "keystore", "add", path, "--name", "Alice")
	assert.Contains(t, out, `Keystore "alice" imported`)
	assert.FileExists(t, path, "source file is left in place")

	cfg := c.config()
	require.Len(t, cfg.Keystores, 1)
	assert.Equal(t, addr, cfg.Keystores[0].Address)
	assert.Empty(t, cfg.DefaultKeystore)

	out = c.mustRun("config", "keystore", "list")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "1 keystore(s) imported")

	c.mustRun("config", "keystore", "use", "ALICE")
	assert.Equal(t, "alice", c.config().DefaultKeystore)

	out = c.mustRun("config", "keystore", "remove", "alice", "--yes")
	assert.Contains(t, out, `Keystore "alice" removed.`)
	cfg = c.config()
	assert.Empty(t, cfg.Keystores)
	assert.Empty(t, cfg.DefaultKeystore)

	trash, err := os.ReadDir(filepath.Join(c.dir, "trash"))
	require.NoError(t, err)
	assert.Len(t, trash, 1)
}

func TestKeystoreAddPromptsForNickname(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("wallet")

	c.input("")
	c.mustRun("config", "keystore", "add", path)
	_, _, ok := c.config().FindKeystore("wallet")
	assert.True(t, ok, "empty answer takes the file name")
}

func TestKeystoreAddOffersFirstDefault(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("alice")

	c.input("y")
	c.mustRun("config", "keystore", "add", path, "--name", "alice")
	assert.Equal(t, "alice", c.config().DefaultKeystore)

	other, err := wallet.New()
	require.NoError(t, err)
	data, err := other.Encrypt(testPass, wallet.LightScryptN, wallet.LightScryptP)
	require.NoError(t, err)
	bob := filepath.Join(t.TempDir(), "bob.json")
	require.NoError(t, os.WriteFile(bob, data, 0o600))

	c.input("y")
	c.mustRun("config", "keystore", "add", bob, "--name", "bob")
	assert.Equal(t, "alice", c.config().DefaultKeystore, "an existing default is not offered again")
}

func TestKeystoreAddFirstDefaultDeclined(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("alice")

	c.input("n")
	out := c.mustRun("config", "keystore", "add", path, "--name", "alice")
	assert.Empty(t, c.config().DefaultKeystore)
	assert.Contains(t, out, "icon config keystore use alice")
}

func TestKeystoreAddDuplicateAddress(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("alice")
	c.mustRun("config", "keystore", "add", path, "--name", "alice")

	_, err := c.run("config", "keystore", "add", path, "--name", "other")
	require.Error(t, err)
	assert.Equal(t, exitInvalid, exitCode(err))
	assert.Len(t, c.config().Keystores, 1)
}

func TestKeystoreAddReplaceDeclined(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("alice")
	c.mustRun("config", "keystore", "add", path, "--name", "alice")

	other, err := wallet.New()
	require.NoError(t, err)
	data, err := other.Encrypt(testPass, wallet.LightScryptN, wallet.LightScryptP)
	require.NoError(t, err)
	otherPath := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, os.WriteFile(otherPath, data, 0o600))

	c.input("n")
	_, err = c.run("config", "keystore", "add", otherPath, "--name", "alice")
	require.Error(t, err)
	assert.Equal(t, exitInvalid, exitCode(err))

	c.mustRun("config", "keystore", "add", otherPath, "--name", "alice", "--replace")
	e, _, ok := c.config().FindKeystore("alice")
	require.True(t, ok)
	assert.Equal(t, other.Address(), e.Address)
}

func TestKeystoreRemoveUnknown(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("config", "keystore", "remove", "ghost", "--yes")
	require.Error(t, err)
	assert.Equal(t, exitUnknown, exitCode(err))
}

func TestKeystoreUnlockAndLock(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("alice")
	c.mustRun("config", "keystore", "add", path, "--name", "alice")

	c.input("wrong")
	_, err := c.run("config", "keystore", "unlock", "alice")
	require.Error(t, err)
	assert.Equal(t, exitAuth, exitCode(err))

	c.input(testPass)
	c.mustRun("config", "keystore", "unlock", "alice")
	pass, err := passphraseCache.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, testPass, pass)

	c.mustRun("config", "keystore", "lock", "alice")
	_, err = passphraseCache.Retrieve("alice")
	assert.ErrorIs(t, err, wallet.ErrNotCached)
}

func TestKeystoreCreate(t *testing.T) {
	c := newCLI(t)
	c.input("s3cret-pass", "s3cret-pass")
	out := c.mustRun("config", "keystore", "create", "fresh", "--light", "--default")
	assert.Contains(t, out, "Back up this file")

	cfg := c.config()
	e, _, ok := cfg.FindKeystore("fresh")
	require.True(t, ok)
	assert.Equal(t, "fresh", cfg.DefaultKeystore)

	w, err := wallet.Load(filepath.Join(c.dir, "keystore", e.Filename), "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, e.Address, w.Address())
}

func TestPurgeEmptiesTrash(t *testing.T) {
	c := newCLI(t)
	path, _ := c.keystoreFile("alice")
	c.mustRun("config", "keystore", "add", path, "--name", "alice")
	c.mustRun("config", "keystore", "remove", "alice", "--yes")

	out := c.mustRun("config", "purge", "--yes")
	assert.Contains(t, out, "Purged 1 file(s).")
	trash, err := os.ReadDir(filepath.Join(c.dir, "trash"))
	require.NoError(t, err)
	assert.Empty(t, trash)

	out = c.mustRun("config", "purge")
	assert.Contains(t, out, "Trash is empty.")
}

// ---------------------------------------------------------------------------
// Networks and addresses
// ---------------------------------------------------------------------------

func TestNetworkAddUseRemove(t *testing.T) {
	c := newCLI(t)
	c.mustRun("config", "network", "add", "Local", "http://localhost:9082", "0x3", "http://localhost:8080")

	n, err := c.config().LookupNetwork("local")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n.NID)

	out := c.mustRun("config", "network", "list")
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "mainnet")

	c.mustRun("config", "network", "use", "local")
	assert.Equal(t, "local", c.config().DefaultNetwork)

	_, err = c.run("config", "network", "add", "local", "http://localhost:9000", "3", "http://localhost:8080")
	require.Error(t, err)
	assert.Equal(t, exitInvalid, exitCode(err))

	_, err = c.run("config", "network", "remove", "local")
	require.Error(t, err, "the default network cannot be removed")
	assert.Equal(t, exitConfig, exitCode(err))

	c.mustRun("config", "network", "use", config.DefaultNetworkName)
	c.mustRun("config", "network", "remove", "local")
	_, err = c.config().LookupNetwork("local")
	assert.Equal(t, exitUnknown, exitCode(err))
}

func TestNetworkUseUnknown(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("config", "network", "use", "nowhere")
	require.Error(t, err)
	assert.Equal(t, exitUnknown, exitCode(err))
}

func TestNetworkPing(t *testing.T) {
	c := newCLI(t)
	up := icxtest.NewNode(t)
	up.Result("icx_getLastBlock", map[string]any{"height": 1234})
	down := icxtest.NewNode(t)

	c.mustRun("config", "network", "add", "up", up.URL, "3", "http://tracker.local")
	c.mustRun("config", "network", "add", "down", down.URL, "4", "http://tracker.local")

	out := c.mustRun("config", "network", "ping", "up", "down")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "down")
	assert.Contains(t, out, "Fastest: up")

	_, err := c.run("config", "network", "ping", "down")
	require.Error(t, err)
	assert.Equal(t, exitRPC, exitCode(err))
}

func TestAddressBook(t *testing.T) {
	c := newCLI(t)
	c.mustRun("config", "address", "add", "bob", bobAddr)
	c.mustRun("config", "address", "add", "alice", "hx0000000000000000000000000000000000000a11")

	out := c.mustRun("config", "address", "list")
	assert.Less(t, strings.Index(out, "alice"), strings.Index(out, "bob"))

	got, err := resolveRecipient("bob")
	require.NoError(t, err)
	assert.Equal(t, bobAddr, got)

	c.mustRun("config", "address", "remove", "bob")
	_, err = resolveRecipient("bob")
	assert.Equal(t, exitUnknown, exitCode(err))

	_, err = c.run("config", "address", "add", "bad", "hx123")
	assert.Equal(t, exitInvalid, exitCode(err))
}

func TestQueryMarketPrice(t *testing.T) {
	c := newCLI(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currencies"))
		_, _ = io.WriteString(w, `{"icon":{"eur":0.1712},"balance-tokens":{"eur":0.2}}`)
	}))
	defer srv.Close()
	t.Setenv(config.EnvPrefix+"_PRICE_API", srv.URL)

	out := c.mustRun("query", "price", "--source", "market", "--currency", "EUR", "icx", "baln")
	assert.Contains(t, out, "1 ICX = 0.1712 EUR")
	assert.Contains(t, out, "1 BALN = 0.2000 EUR")

	_, err := c.run("query", "price", "--source", "market", "doge")
	require.Error(t, err)
	assert.Equal(t, exitInvalid, exitCode(err))
}

func TestQuerySupply(t *testing.T) {
	c := newCLI(t)
	node := icxtest.NewNode(t)
	node.Result("icx_getTotalSupply", "0x2a") // 42 loop
	c.mustRun("config", "network", "add", "local", node.URL, "3", "http://tracker.local")

	out := c.mustRun("--network", "local", "query", "supply")
	assert.Contains(t, out, "0.000000000000000042 ICX on local")
}

func TestQueryPriceOracleRejectsOtherSymbols(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("query", "price", "baln")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--source market")
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// txCLI is a CLI with alice imported as the default keystore and a local
// network pointing at a mock node.
func txCLI(t *testing.T) (*cli, *icxtest.Node) {
	t.Helper()
	c := newCLI(t)
	node := icxtest.NewNode(t)
	node.Result("debug_estimateStep", "0x186a0")
	node.Result("icx_sendTransaction", txHash)

	path, _ := c.keystoreFile("alice")
	c.mustRun("config", "keystore", "add", path, "--name", "alice", "--default")
	c.mustRun("config", "network", "add", "local", node.URL, "3", "http://tracker.local")
	t.Setenv(config.PasswordEnvVar("alice"), testPass)
	return c, node
}

func TestTxSend(t *testing.T) {
	c, node := txCLI(t)
	out := c.mustRun("-n", "local", "tx", "send", bobAddr, "1.5", "--yes")
	assert.Contains(t, out, "Transaction sent!")
	assert.Contains(t, out, "http://tracker.local/transaction/"+txHash)

	sent := node.Requests("icx_sendTransaction")
	require.Len(t, sent, 1)
	p := sent[0].Params
	assert.Equal(t, bobAddr, p["to"])
	assert.Equal(t, "0x14d1120d7b160000", p["value"])
	assert.Equal(t, "0x3", p["nid"])
	assert.Equal(t, "0x1adb0", p["stepLimit"])
	assert.NotEmpty(t, p["signature"])
}

func TestTxSendToSavedLabel(t *testing.T) {
	c, node := txCLI(t)
	c.mustRun("config", "address", "add", "bob", bobAddr)
	c.mustRun("-n", "local", "tx", "send", "bob", "1", "--yes", "--step-limit", "200000")

	sent := node.Requests("icx_sendTransaction")
	require.Len(t, sent, 1)
	assert.Equal(t, bobAddr, sent[0].Params["to"])
	assert.Equal(t, "0x30d40", sent[0].Params["stepLimit"])
	assert.Empty(t, node.Requests("debug_estimateStep"))
}

func TestTxSendDeclined(t *testing.T) {
	c, node := txCLI(t)
	c.input("n")
	out := c.mustRun("-n", "local", "tx", "send", bobAddr, "1")
	assert.Contains(t, out, "Cancelled.")
	assert.Empty(t, node.Requests("icx_sendTransaction"))
}

func TestTxSendSimulate(t *testing.T) {
	c, node := txCLI(t)
	out := c.mustRun("-n", "local", "tx", "send", bobAddr, "1", "--simulate")
	assert.Contains(t, out, `"signature"`)
	assert.Contains(t, out, `"to": "`+bobAddr+`"`)
	assert.Empty(t, node.Requests("icx_sendTransaction"))
}

func TestTxSendWithCachedPassphrase(t *testing.T) {
	c, node := txCLI(t)
	t.Setenv(config.PasswordEnvVar("alice"), "")
	require.NoError(t, passphraseCache.Store("alice", testPass))

	c.mustRun("-n", "local", "tx", "send", bobAddr, "1", "--yes")
	assert.Len(t, node.Requests("icx_sendTransaction"), 1)
}

func TestTxSendWrongPassphrase(t *testing.T) {
	c, node := txCLI(t)
	t.Setenv(config.PasswordEnvVar("alice"), "nope")

	_, err := c.run("-n", "local", "tx", "send", bobAddr, "1", "--yes")
	require.Error(t, err)
	assert.Equal(t, exitAuth, exitCode(err))
	assert.Empty(t, node.Requests("icx_sendTransaction"))
}

func TestTxRefusedInReadOnlyMode(t *testing.T) {
	c, node := txCLI(t)
	c.mustRun("config", "mode", "r")

	_, err := c.run("-n", "local", "tx", "send", bobAddr, "1", "--yes")
	require.ErrorIs(t, err, ErrReadOnlyMode)
	assert.Equal(t, exitReadOnly, exitCode(err))
	assert.Empty(t, node.Requests("debug_estimateStep"))
}

func TestTxSendRejectsBadAmount(t *testing.T) {
	c, node := txCLI(t)
	_, err := c.run("-n", "local", "tx", "send", bobAddr, "0", "--yes")
	assert.Error(t, err)
	assert.Empty(t, node.Requests("icx_sendTransaction"))
}

func TestTxSendBatch(t *testing.T) {
	c, node := txCLI(t)
	csvPath := filepath.Join(t.TempDir(), "payouts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"to,value,message\n"+
			bobAddr+",1,\n"+
			"hx0000000000000000000000000000000000000a11,2.5,thanks\n"), 0o600))

	out := c.mustRun("-n", "local", "tx", "send-batch", csvPath, "--yes")
	assert.Contains(t, out, "2 transfers sent.")
	assert.Len(t, node.Requests("icx_sendTransaction"), 2)

	results, err := filepath.Glob(filepath.Join(c.dir, "history", "batch-*.csv"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	data, err := os.ReadFile(results[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), txHash)
	assert.Equal(t, 2, strings.Count(string(data), ",sent,"))
}

func TestProtocolTxRequiresMainnet(t *testing.T) {
	c, _ := txCLI(t)
	_, err := c.run("-n", "local", "tx", "balanced", "borrow", "10", "--yes")
	assert.Error(t, err)
}
