// Package addressbook stores labelled ICON addresses in the config document.
package addressbook

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
)

// Errors.
var (
	ErrUnknownLabel   = errors.New("unknown address label")
	ErrInvalidAddress = errors.New("invalid ICON address")
	ErrInvalidLabel   = errors.New("invalid address label")
)

var (
	walletRe   = regexp.MustCompile(`(?i)^hx[0-9a-f]{40}$`)
	contractRe = regexp.MustCompile(`(?i)^cx[0-9a-f]{40}$`)
	txHashRe   = regexp.MustCompile(`(?i)^0x[0-9a-f]{64}$`)
)

// ValidWalletAddress reports whether s is an hx address.
func ValidWalletAddress(s string) bool { return walletRe.MatchString(s) }

// ValidContractAddress reports whether s is a cx address.
func ValidContractAddress(s string) bool { return contractRe.MatchString(s) }

// ValidAddress reports whether s is a wallet or contract address.
func ValidAddress(s string) bool { return ValidWalletAddress(s) || ValidContractAddress(s) }

// ValidTxHash reports whether s is a 0x-prefixed 32-byte hash.
func ValidTxHash(s string) bool { return txHashRe.MatchString(s) }

// Book is the saved_addresses section of the config document.
type Book struct {
	store *config.Store
}

// New returns a book backed by store.
func New(store *config.Store) *Book {
	return &Book{store: store}
}

// Save stores address under label, replacing any previous address.
func (b *Book) Save(label, address string) (string, error) {
	key := config.NormalizeName(label)
	if key == "" {
		return "", fmt.Errorf("%w: label is empty", ErrInvalidLabel)
	}
	if ValidAddress(label) {
		return "", fmt.Errorf("%w: %q looks like an address", ErrInvalidLabel, label)
	}
	address = strings.TrimSpace(address)
	if !ValidAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	err := b.store.Update(func(cfg *config.AppConfig) error {
		for existing := range cfg.SavedAddresses {
			if config.NormalizeName(existing) == key {
				delete(cfg.SavedAddresses, existing)
			}
		}
		cfg.SavedAddresses[key] = strings.ToLower(address)
		return nil
	})
	return key, err
}

// Delete removes label.
func (b *Book) Delete(label string) error {
	key := config.NormalizeName(label)
	return b.store.Update(func(cfg *config.AppConfig) error {
		for existing := range cfg.SavedAddresses {
			if config.NormalizeName(existing) == key {
				delete(cfg.SavedAddresses, existing)
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	})
}

// List returns a copy of the book.
func (b *Book) List() (map[string]string, error) {
	cfg, err := b.store.Read()
	if err != nil {
		return nil, err
	}
	return cfg.Clone().SavedAddresses, nil
}

// Resolve returns s itself when it is an address, otherwise the address
// saved under the label s.
func (b *Book) Resolve(s string) (string, error) {
	s = strings.TrimSpace(s)
	if ValidAddress(s) {
		return strings.ToLower(s), nil
	}
	cfg, err := b.store.Read()
	if err != nil {
		return "", err
	}
	key := config.NormalizeName(s)
	for label, addr := range cfg.SavedAddresses {
		if config.NormalizeName(label) == key {
			return addr, nil
		}
	}
	return "", fmt.Errorf("%w: %q is neither an address nor a saved label", ErrUnknownLabel, s)
}
