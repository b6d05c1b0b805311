// Package network resolves ICON networks and tracks the default one.
package network

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// Errors.
var (
	ErrUnknownNetwork   = config.ErrUnknownNetwork
	ErrDuplicateNetwork = errors.New("network already exists")
	ErrInvalidNetwork   = errors.New("invalid network")
)

// Entry is a network as shown by List.
type Entry struct {
	config.NetworkDescriptor
	Builtin bool
	Default bool
}

// Registry is the network registry: the built-in table plus the custom
// networks stored in the config document.
type Registry struct {
	store *config.Store
}

// NewRegistry returns a registry backed by store.
func NewRegistry(store *config.Store) *Registry {
	return &Registry{store: store}
}

// Resolve finds a network by name, built-ins first.
func (r *Registry) Resolve(name string) (config.NetworkDescriptor, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return config.NetworkDescriptor{}, err
	}
	return cfg.LookupNetwork(name)
}

// ResolveByNID finds a network by its numeric id.
func (r *Registry) ResolveByNID(nid int64) (config.NetworkDescriptor, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return config.NetworkDescriptor{}, err
	}
	for _, n := range config.BuiltinNetworks() {
		if n.NID == nid {
			return n, nil
		}
	}
	for _, n := range cfg.CustomNetworks {
		if n.NID == nid {
			return n, nil
		}
	}
	return config.NetworkDescriptor{}, fmt.Errorf("%w: nid %d", ErrUnknownNetwork, nid)
}

// Default returns the default network.
func (r *Registry) Default() (config.NetworkDescriptor, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return config.NetworkDescriptor{}, err
	}
	return cfg.LookupNetwork(cfg.DefaultNetwork)
}

// SetDefault makes name the default network. The document is untouched
// when name does not resolve.
func (r *Registry) SetDefault(name string) error {
	return r.store.Update(func(cfg *config.AppConfig) error {
		n, err := cfg.LookupNetwork(name)
		if err != nil {
			return err
		}
		cfg.DefaultNetwork = n.Name
		log.Network.Debug().Str("network", n.Name).Msg("default network set")
		return nil
	})
}

// List returns the built-in networks in table order followed by the
// custom networks sorted by name.
func (r *Registry) List() ([]Entry, error) {
	cfg, err := r.store.Read()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(cfg.CustomNetworks)+4)
	for _, n := range config.BuiltinNetworks() {
		out = append(out, Entry{NetworkDescriptor: n, Builtin: true, Default: n.Name == cfg.DefaultNetwork})
	}

	names := make([]string, 0, len(cfg.CustomNetworks))
	for name := range cfg.CustomNetworks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, Entry{NetworkDescriptor: cfg.CustomNetworks[name], Default: name == cfg.DefaultNetwork})
	}
	return out, nil
}

// AddCustom registers a user-defined network. Its name is normalized
// before validation.
func (r *Registry) AddCustom(n config.NetworkDescriptor) (config.NetworkDescriptor, error) {
	n.Name = config.NormalizeName(n.Name)
	if err := config.ValidateNetwork(n); err != nil {
		return config.NetworkDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidNetwork, err)
	}
	err := r.store.Update(func(cfg *config.AppConfig) error {
		if config.IsBuiltinNetwork(n.Name) {
			return fmt.Errorf("%w: %q is a built-in network", ErrDuplicateNetwork, n.Name)
		}
		if _, ok := cfg.CustomNetworks[n.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateNetwork, n.Name)
		}
		cfg.CustomNetworks[n.Name] = n
		return nil
	})
	if err != nil {
		return config.NetworkDescriptor{}, err
	}
	log.Network.Debug().Str("network", n.Name).Int64("nid", n.NID).Msg("custom network added")
	return n, nil
}

// RemoveCustom deletes a user-defined network. Removing the default
// network is rejected by the store's invariant check.
func (r *Registry) RemoveCustom(name string) error {
	key := config.NormalizeName(name)
	return r.store.Update(func(cfg *config.AppConfig) error {
		if config.IsBuiltinNetwork(key) {
			return fmt.Errorf("%w: %q is a built-in network", ErrInvalidNetwork, key)
		}
		if _, ok := cfg.CustomNetworks[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
		}
		delete(cfg.CustomNetworks, key)
		return nil
	})
}
