package wallet

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/99designs/keyring"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

const keychainService = "icon-cli"

// ErrNotCached is returned when no passphrase is cached for a keystore.
var ErrNotCached = errors.New("passphrase not cached")

// PassphraseCache keeps unlocked keystore passphrases in the OS keychain.
// A cache without a backend stores nothing.
type PassphraseCache struct {
	ring keyring.Keyring
}

// OpenPassphraseCache opens the OS keychain. When no backend is usable
// the returned cache is inert.
func OpenPassphraseCache() *PassphraseCache {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
	}
	// The file backend would need its own password, which defeats the cache.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
		}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		log.Wallet.Debug().Err(err).Msg("no keychain backend, passphrase cache disabled")
		return &PassphraseCache{}
	}
	return &PassphraseCache{ring: ring}
}

// NewPassphraseCache wraps ring.
func NewPassphraseCache(ring keyring.Keyring) *PassphraseCache {
	return &PassphraseCache{ring: ring}
}

// Available reports whether the cache has a backend.
func (c *PassphraseCache) Available() bool { return c != nil && c.ring != nil }

func cacheKey(nickname string) string {
	return keychainService + "." + config.NormalizeName(nickname)
}

// Store caches the passphrase of a keystore.
func (c *PassphraseCache) Store(nickname, passphrase string) error {
	if !c.Available() {
		return fmt.Errorf("keychain store: no keychain backend available")
	}
	err := c.ring.Set(keyring.Item{
		Key:         cacheKey(nickname),
		Data:        []byte(passphrase),
		Label:       "icon-cli keystore " + nickname,
		Description: "passphrase for icon-cli keystore",
	})
	if err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

// Retrieve returns a cached passphrase or ErrNotCached.
func (c *PassphraseCache) Retrieve(nickname string) (string, error) {
	if !c.Available() {
		return "", ErrNotCached
	}
	item, err := c.ring.Get(cacheKey(nickname))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotCached
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete forgets a cached passphrase. Missing entries are not an error.
func (c *PassphraseCache) Delete(nickname string) error {
	if !c.Available() {
		return nil
	}
	err := c.ring.Remove(cacheKey(nickname))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// PassphraseSource looks up a keystore passphrase in the environment, then
// the cache, then asks the user.
type PassphraseSource struct {
	Getenv func(string) string
	Cache  *PassphraseCache
	Prompt func(nickname string) (string, error)
}

// Origin says where a passphrase came from.
type Origin int

// Origins.
const (
	FromEnv Origin = iota
	FromCache
	FromPrompt
)

// Passphrase returns the passphrase for nickname and its origin.
func (s PassphraseSource) Passphrase(nickname string) (string, Origin, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(config.PasswordEnvVar(nickname)); v != "" {
		return v, FromEnv, nil
	}
	if p, err := s.Cache.Retrieve(nickname); err == nil {
		return p, FromCache, nil
	} else if !errors.Is(err, ErrNotCached) {
		log.Wallet.Warn().Err(err).Msg("passphrase cache unavailable")
	}
	if s.Prompt == nil {
		return "", FromPrompt, fmt.Errorf("%w: no passphrase for %q (set %s)", ErrAuthentication, nickname, config.PasswordEnvVar(nickname))
	}
	p, err := s.Prompt(nickname)
	return p, FromPrompt, err
}

// Unlock decrypts the keystore at path using s. A cached passphrase that
// no longer works is evicted.
func (s PassphraseSource) Unlock(path, nickname string) (*Wallet, error) {
	pass, origin, err := s.Passphrase(nickname)
	if err != nil {
		return nil, err
	}
	w, err := Load(path, pass)
	if errors.Is(err, ErrAuthentication) && origin == FromCache {
		if derr := s.Cache.Delete(nickname); derr != nil {
			log.Wallet.Warn().Err(derr).Msg("evicting stale passphrase")
		}
	}
	return w, err
}
