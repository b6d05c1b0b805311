package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// replace commits a pending file. Tests swap it to simulate a crash
// before the final rename.
var replace = func(f *renameio.PendingFile, _ string) error {
	return f.CloseAtomicallyReplace()
}

// Store owns the on-disk configuration directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. Nothing touches the disk until
// EnsureLayout, Read or Write is called.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Dir returns the base directory.
func (s *Store) Dir() string { return s.dir }

// ConfigPath returns the path of config.yml.
func (s *Store) ConfigPath() string { return filepath.Join(s.dir, ConfigFileName) }

// KeystoreDir returns the managed keystore directory.
func (s *Store) KeystoreDir() string { return filepath.Join(s.dir, KeystoreDirName) }

// TrashDir returns the directory holding replaced keystore files.
func (s *Store) TrashDir() string { return filepath.Join(s.dir, TrashDirName) }

// DataDir returns the data directory.
func (s *Store) DataDir() string { return filepath.Join(s.dir, DataDirName) }

// HistoryDir returns the history directory.
func (s *Store) HistoryDir() string { return filepath.Join(s.dir, HistoryDirName) }

// EnsureLayout creates the directory layout and a default document when
// none exists. It is safe to call on every start.
func (s *Store) EnsureLayout() error {
	for _, d := range []string{s.dir, s.DataDir(), s.KeystoreDir(), s.HistoryDir(), s.TrashDir()} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrFilesystem, d, err)
		}
	}

	_, err := os.Stat(s.ConfigPath())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		log.Config.Debug().Str("path", s.ConfigPath()).Msg("writing default config")
		return s.Write(Default())
	default:
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
}

// Read loads and validates the document.
func (s *Store) Read() (*AppConfig, error) {
	data, err := os.ReadFile(s.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFilesystem, s.ConfigPath(), err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ConfigPath(), err)
	}
	return cfg, nil
}

// Inspect is Read for display purposes.
func (s *Store) Inspect() (*AppConfig, error) {
	return s.Read()
}

// Write validates cfg and atomically replaces the document. An invalid
// document is rejected before any bytes reach the disk.
func (s *Store) Write(cfg *AppConfig) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvariant, err)
	}
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(s.ConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrFilesystem, s.ConfigPath(), err)
	}
	log.Config.Debug().Str("path", s.ConfigPath()).Int("bytes", len(data)).Msg("config written")
	return nil
}

// Update reads the document, applies fn to it and writes it back. When fn
// returns an error nothing is written.
func (s *Store) Update(fn func(*AppConfig) error) error {
	cfg, err := s.Read()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return s.Write(cfg)
}

// Reset discards the current document and writes the defaults. Imported
// keystore files are left on disk.
func (s *Store) Reset() error {
	log.Config.Info().Str("path", s.ConfigPath()).Msg("resetting config to defaults")
	return s.Write(Default())
}

// Decode strictly parses and validates a document.
func Decode(data []byte) (*AppConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg AppConfig
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrConfigCorrupt)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}
	if cfg.Keystores == nil {
		return nil, fmt.Errorf("%w: missing keystores", ErrConfigCorrupt)
	}
	cfg.normalize()
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigCorrupt, err)
	}
	return &cfg, nil
}

// Encode serializes a document. Map keys are emitted sorted, so encoding
// the same document twice yields identical bytes.
func Encode(cfg *AppConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize fills the optional sections and stores the default pointers
// in the same form as the names they refer to.
func (c *AppConfig) normalize() {
	c.DefaultKeystore = NormalizeName(c.DefaultKeystore)
	c.DefaultNetwork = NormalizeName(c.DefaultNetwork)
	if c.CustomNetworks == nil {
		c.CustomNetworks = make(map[string]NetworkDescriptor)
	}
	if c.SavedAddresses == nil {
		c.SavedAddresses = make(map[string]string)
	}
}

// WriteFileAtomic writes data to a pending file in the target's directory
// and atomically replaces path with it. A failure at any step leaves path
// untouched and removes the pending file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithStaticPermissions(perm))
	if err != nil {
		return err
	}
	defer func() { _ = f.Cleanup() }()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := replace(f, path); err != nil {
		return err
	}

	if d, derr := os.Open(dir); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
