package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/addressbook"
	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/keystore"
	"github.com/Mohsinsiddi/icon-cli/internal/network"
	"github.com/Mohsinsiddi/icon-cli/internal/price"
	"github.com/Mohsinsiddi/icon-cli/internal/tracker"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
	"github.com/spf13/cobra"
)

// prompter answers every interactive question. Tests swap it.
var prompter = ui.Stdio

// passphraseCache is opened on first use.
var passphraseCache *wallet.PassphraseCache

func keychain() *wallet.PassphraseCache {
	if passphraseCache == nil {
		passphraseCache = wallet.OpenPassphraseCache()
	}
	return passphraseCache
}

func keystores() *keystore.Registry { return keystore.NewRegistry(store) }

func networks() *network.Registry { return network.NewRegistry(store) }

func book() *addressbook.Book { return addressbook.New(store) }

// activeNetwork returns the --network override or the default network.
func activeNetwork() (config.NetworkDescriptor, error) {
	if networkFlag != "" {
		return networks().Resolve(networkFlag)
	}
	return networks().Default()
}

func httpTimeout() time.Duration {
	if env != nil && env.HTTPTimeout > 0 {
		return env.HTTPTimeout
	}
	return config.HTTPTimeout
}

func newClient(n config.NetworkDescriptor) *icx.Client {
	return icx.NewClient(n.APIEndpoint, icx.WithTimeout(httpTimeout()))
}

func newTracker(n config.NetworkDescriptor) (*tracker.Client, error) {
	if n.TrackerEndpoint == "" {
		return nil, fmt.Errorf("network %q has no tracker endpoint", n.Name)
	}
	return tracker.NewClient(n.TrackerEndpoint, httpTimeout()), nil
}

func newPriceFetcher(currency string) *price.Fetcher {
	opts := []price.Option{price.WithTimeout(httpTimeout())}
	if env != nil && env.PriceAPI != "" {
		opts = append(opts, price.WithBaseURL(env.PriceAPI))
	}
	return price.NewFetcher(currency, opts...)
}

// session bundles the network and client most commands start from.
type session struct {
	network config.NetworkDescriptor
	client  *icx.Client
}

func newSession() (*session, error) {
	n, err := activeNetwork()
	if err != nil {
		return nil, err
	}
	return &session{network: n, client: newClient(n)}, nil
}

// resolveAddress turns a keystore nickname, saved label or literal
// address into an address. An empty argument means the default keystore.
func resolveAddress(arg string) (string, error) {
	if arg == "" {
		e, err := keystores().Default()
		if err != nil {
			return "", err
		}
		return e.Address, nil
	}
	if addressbook.ValidAddress(arg) {
		return strings.ToLower(arg), nil
	}
	if e, err := keystores().Resolve(arg); err == nil {
		return e.Address, nil
	} else if !errors.Is(err, keystore.ErrUnknownKeystore) {
		return "", err
	}
	return book().Resolve(arg)
}

// resolveRecipient is resolveAddress without the default fallback.
func resolveRecipient(arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return "", fmt.Errorf("%w: empty recipient", addressbook.ErrInvalidAddress)
	}
	return resolveAddress(arg)
}

// unlock decrypts a keystore, or the default one when nickname is empty.
func unlock(nickname string) (config.KeystoreEntry, *wallet.Wallet, error) {
	reg := keystores()
	e, err := reg.ResolveOrDefault(nickname)
	if err != nil {
		return config.KeystoreEntry{}, nil, err
	}
	src := wallet.PassphraseSource{
		Cache: keychain(),
		Prompt: func(name string) (string, error) {
			return prompter.Password(fmt.Sprintf("Passphrase for %q", name))
		},
	}
	w, err := src.Unlock(reg.Path(e), e.Name)
	if err != nil {
		return config.KeystoreEntry{}, nil, err
	}
	return e, w, nil
}

// requireWritable fails when the config forbids transactions.
func requireWritable() error {
	cfg, err := store.Read()
	if err != nil {
		return err
	}
	if cfg.Mode == config.ModeRead {
		return ErrReadOnlyMode
	}
	return nil
}

// parseICX converts an ICX amount to loop, rejecting non-positive values.
func parseICX(s string) (*big.Int, error) {
	v, err := icx.ToLoop(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q: must be positive", s)
	}
	return v, nil
}

// parseInt accepts decimal or 0x-prefixed hex.
func parseInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		return icx.HexToBig(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

// printResult prints v as JSON when --json is set, otherwise calls human.
func printResult(w io.Writer, v any, human func() error) error {
	if jsonOutput {
		return ui.PrintJSON(w, v)
	}
	return human()
}

// withSpinner runs fn while a spinner shows msg.
func withSpinner[T any](msg string, fn func() (T, error)) (T, error) {
	spin := ui.NewSpinner(msg)
	spin.Start()
	defer spin.Stop()
	return fn()
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func trackerLink(n config.NetworkDescriptor, kind, id string) string {
	if n.TrackerEndpoint == "" {
		return ""
	}
	return strings.TrimRight(n.TrackerEndpoint, "/") + "/" + kind + "/" + id
}
