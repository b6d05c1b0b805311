package keystore

import (
	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
)

// CreateOptions controls key generation for Create.
type CreateOptions struct {
	ImportOptions
	// ScryptN and ScryptP default to the standard parameters.
	ScryptN int
	ScryptP int
}

// Create generates a fresh key, encrypts it with passphrase and imports
// it under nickname. The new wallet is returned alongside the entry.
func (r *Registry) Create(nickname, passphrase string, opts CreateOptions) (config.KeystoreEntry, *wallet.Wallet, error) {
	n, p := opts.ScryptN, opts.ScryptP
	if n == 0 || p == 0 {
		n, p = wallet.StandardScryptN, wallet.StandardScryptP
	}
	w, err := wallet.New()
	if err != nil {
		return config.KeystoreEntry{}, nil, err
	}
	blob, err := w.Encrypt(passphrase, n, p)
	if err != nil {
		return config.KeystoreEntry{}, nil, err
	}
	e, err := r.ImportJSON(blob, nickname, opts.ImportOptions)
	if err != nil {
		return config.KeystoreEntry{}, nil, err
	}
	return e, w, nil
}
