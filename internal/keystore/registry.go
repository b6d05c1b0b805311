// Package keystore manages imported keystore files and their nicknames.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// Errors.
var (
	ErrInvalidFormat    = errors.New("invalid keystore format")
	ErrDuplicateAddress = errors.New("keystore address already imported")
	ErrDuplicateName    = errors.New("keystore name already in use")
	ErrUnknownKeystore  = errors.New("unknown keystore")
	ErrInvalidNickname  = errors.New("invalid keystore nickname")
	ErrNoDefault        = errors.New("no default keystore set")
	ErrFilesystem       = config.ErrFilesystem
)

// ImportOptions controls collision handling and the default pointer.
type ImportOptions struct {
	// Replace moves an existing keystore with the same nickname to the
	// trash without asking.
	Replace bool
	// ConfirmReplace is asked when the nickname is taken and Replace is
	// false. A nil func aborts with ErrDuplicateName.
	ConfirmReplace func(existing config.KeystoreEntry) (bool, error)
	// SetDefault points default_keystore at the imported entry.
	SetDefault bool
	// ConfirmDefault is asked when the document has no default keystore
	// and SetDefault is false. A nil func leaves the default unset.
	ConfirmDefault func(entry config.KeystoreEntry) (bool, error)
}

// Registry imports, resolves and retires keystores.
type Registry struct {
	store *config.Store
	now   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for trash timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry returns a registry backed by store.
func NewRegistry(store *config.Store, opts ...Option) *Registry {
	r := &Registry{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeNickname returns the stored form of a nickname.
func NormalizeNickname(nickname string) (string, error) {
	name := config.NormalizeName(nickname)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: nickname is empty", ErrInvalidNickname)
	case strings.ContainsAny(name, `/\`), strings.HasPrefix(name, "."):
		return "", fmt.Errorf("%w: %q", ErrInvalidNickname, nickname)
	}
	return name, nil
}

// Import copies the keystore at path into the managed directory under
// nickname. The source file is never modified. Either every step
// succeeds or the directory and document are left as they were.
func (r *Registry) Import(path, nickname string, opts ImportOptions) (config.KeystoreEntry, error) {
	f, data, err := ParseFile(path)
	if err != nil {
		return config.KeystoreEntry{}, err
	}
	return r.importParsed(f, data, path, nickname, opts)
}

// ImportJSON is Import for a keystore already held in memory.
func (r *Registry) ImportJSON(data []byte, nickname string, opts ImportOptions) (config.KeystoreEntry, error) {
	f, err := Parse(data)
	if err != nil {
		return config.KeystoreEntry{}, err
	}
	return r.importParsed(f, data, "<memory>", nickname, opts)
}

func (r *Registry) importParsed(f *File, data []byte, source, nickname string, opts ImportOptions) (config.KeystoreEntry, error) {
	name, err := NormalizeNickname(nickname)
	if err != nil {
		return config.KeystoreEntry{}, err
	}

	cfg, err := r.store.Read()
	if err != nil {
		return config.KeystoreEntry{}, err
	}

	if dup, _, ok := cfg.FindKeystoreByAddress(f.Address); ok {
		return config.KeystoreEntry{}, fmt.Errorf("%w: %s is registered as %q", ErrDuplicateAddress, f.Address, dup.Name)
	}

	existing, idx, taken := cfg.FindKeystore(name)
	if taken {
		replace := opts.Replace
		if !replace && opts.ConfirmReplace != nil {
			if replace, err = opts.ConfirmReplace(existing); err != nil {
				return config.KeystoreEntry{}, err
			}
		}
		if !replace {
			return config.KeystoreEntry{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	entry := config.KeystoreEntry{
		Name:     name,
		Address:  f.Address,
		Filename: name + ".json",
	}
	dest := filepath.Join(r.store.KeystoreDir(), entry.Filename)

	setDefault := opts.SetDefault
	if !setDefault && cfg.DefaultKeystore == "" && opts.ConfirmDefault != nil {
		if setDefault, err = opts.ConfirmDefault(entry); err != nil {
			return config.KeystoreEntry{}, err
		}
	}

	var tx fileTx
	if taken {
		if err := tx.trash(r, filepath.Join(r.store.KeystoreDir(), existing.Filename), existing.Filename); err != nil {
			return config.KeystoreEntry{}, err
		}
		cfg.Keystores = append(cfg.Keystores[:idx], cfg.Keystores[idx+1:]...)
	}

	// An untracked file under the same name is retired like a replaced one.
	if fileExists(dest) {
		if err := tx.trash(r, dest, entry.Filename); err != nil {
			tx.rollback()
			return config.KeystoreEntry{}, err
		}
	}
	if err := config.WriteFileAtomic(dest, data, 0o600); err != nil {
		tx.rollback()
		return config.KeystoreEntry{}, fmt.Errorf("%w: copying %s: %v", ErrFilesystem, source, err)
	}
	tx.created = append(tx.created, dest)

	cfg.Keystores = append(cfg.Keystores, entry)
	if setDefault {
		cfg.DefaultKeystore = name
	}
	if err := r.store.Write(cfg); err != nil {
		tx.rollback()
		return config.KeystoreEntry{}, err
	}

	log.Keystore.Debug().
		Str("keystore", name).
		Str("address", entry.Address).
		Str("source", source).
		Int("trashed", len(tx.moved)).
		Msg("keystore imported")
	return entry, nil
}

// List returns the entries in insertion order.
func (r *Registry) List() ([]config.KeystoreEntry, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return nil, err
	}
	return cfg.Keystores, nil
}

// Resolve finds an entry by nickname.
func (r *Registry) Resolve(nickname string) (config.KeystoreEntry, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return config.KeystoreEntry{}, err
	}
	e, _, ok := cfg.FindKeystore(nickname)
	if !ok {
		return config.KeystoreEntry{}, fmt.Errorf("%w: %q", ErrUnknownKeystore, nickname)
	}
	return e, nil
}

// ResolveOrDefault resolves nickname, or the default keystore when
// nickname is empty.
func (r *Registry) ResolveOrDefault(nickname string) (config.KeystoreEntry, error) {
	if nickname != "" {
		return r.Resolve(nickname)
	}
	return r.Default()
}

// Default returns the default keystore.
func (r *Registry) Default() (config.KeystoreEntry, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return config.KeystoreEntry{}, err
	}
	if cfg.DefaultKeystore == "" {
		return config.KeystoreEntry{}, ErrNoDefault
	}
	e, _, ok := cfg.FindKeystore(cfg.DefaultKeystore)
	if !ok {
		return config.KeystoreEntry{}, fmt.Errorf("%w: %q", ErrUnknownKeystore, cfg.DefaultKeystore)
	}
	return e, nil
}

// SetDefault points default_keystore at nickname.
func (r *Registry) SetDefault(nickname string) error {
	return r.store.Update(func(cfg *config.AppConfig) error {
		e, _, ok := cfg.FindKeystore(nickname)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKeystore, nickname)
		}
		cfg.DefaultKeystore = e.Name
		return nil
	})
}

// Remove retires a keystore: its file goes to the trash and its entry is
// dropped. The default pointer is cleared when it referenced the entry.
func (r *Registry) Remove(nickname string) (config.KeystoreEntry, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return config.KeystoreEntry{}, err
	}
	e, idx, ok := cfg.FindKeystore(nickname)
	if !ok {
		return config.KeystoreEntry{}, fmt.Errorf("%w: %q", ErrUnknownKeystore, nickname)
	}

	var tx fileTx
	if err := tx.trash(r, r.Path(e), e.Filename); err != nil {
		return config.KeystoreEntry{}, err
	}
	cfg.Keystores = append(cfg.Keystores[:idx], cfg.Keystores[idx+1:]...)
	if config.NormalizeName(cfg.DefaultKeystore) == e.Name {
		cfg.DefaultKeystore = ""
	}
	if err := r.store.Write(cfg); err != nil {
		tx.rollback()
		return config.KeystoreEntry{}, err
	}
	log.Keystore.Debug().Str("keystore", e.Name).Msg("keystore removed")
	return e, nil
}

// Path returns the absolute path of an entry's managed file.
func (r *Registry) Path(e config.KeystoreEntry) string {
	return filepath.Join(r.store.KeystoreDir(), e.Filename)
}

// Load resolves nickname and reads its managed file.
func (r *Registry) Load(nickname string) (config.KeystoreEntry, *File, []byte, error) {
	e, err := r.ResolveOrDefault(nickname)
	if err != nil {
		return config.KeystoreEntry{}, nil, nil, err
	}
	f, data, err := ParseFile(r.Path(e))
	if err != nil {
		return config.KeystoreEntry{}, nil, nil, err
	}
	return e, f, data, nil
}

// TrashContents lists the files waiting in the trash, oldest first.
func (r *Registry) TrashContents() ([]string, error) {
	entries, err := os.ReadDir(r.store.TrashDir())
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// PurgeTrash irreversibly deletes the trash and recreates it empty.
func (r *Registry) PurgeTrash() error {
	dir := r.store.TrashDir()
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: purging %s: %v", ErrFilesystem, dir, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: recreating %s: %v", ErrFilesystem, dir, err)
	}
	log.Keystore.Debug().Str("path", dir).Msg("trash purged")
	return nil
}

// fileTx records file moves so a failed import or removal can be undone.
type fileTx struct {
	moved   [][2]string // {original, trashed}
	created []string
}

func (tx *fileTx) trash(r *Registry, path, filename string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Keystore.Warn().Str("path", path).Msg("keystore file already missing")
		return nil
	}
	if err := os.MkdirAll(r.store.TrashDir(), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	stamp := r.now().UTC().Unix()
	dst := filepath.Join(r.store.TrashDir(), fmt.Sprintf("%d_%s", stamp, filename))
	for n := 1; fileExists(dst); n++ {
		dst = filepath.Join(r.store.TrashDir(), fmt.Sprintf("%d_%d_%s", stamp, n, filename))
	}
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("%w: moving %s to trash: %v", ErrFilesystem, path, err)
	}
	tx.moved = append(tx.moved, [2]string{path, dst})
	return nil
}

// rollback is best effort; the original error is what the caller reports.
func (tx *fileTx) rollback() {
	for _, p := range tx.created {
		if err := os.Remove(p); err != nil {
			log.Keystore.Error().Err(err).Str("path", p).Msg("rollback: removing copy")
		}
	}
	for i := len(tx.moved) - 1; i >= 0; i-- {
		m := tx.moved[i]
		if err := os.Rename(m[1], m[0]); err != nil {
			log.Keystore.Error().Err(err).Str("path", m[0]).Msg("rollback: restoring from trash")
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
