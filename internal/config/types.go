package config

import (
	"fmt"
	"slices"
	"strings"
)

// Mode gates whether transaction-submitting commands may run.
type Mode string

// Modes.
const (
	ModeRead      Mode = "r"
	ModeReadWrite Mode = "rw"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeRead || m == ModeReadWrite
}

// AppConfig is the root document persisted as config.yml.
// Fields are declared in key order so the encoded document is stable.
type AppConfig struct {
	CustomNetworks  map[string]NetworkDescriptor `yaml:"custom_networks"  json:"custom_networks"`
	DefaultKeystore string                       `yaml:"default_keystore" json:"default_keystore"` // "" means unset
	DefaultNetwork  string                       `yaml:"default_network"  json:"default_network"`
	Keystores       []KeystoreEntry              `yaml:"keystores"        json:"keystores"`
	Mode            Mode                         `yaml:"mode"             json:"mode"`
	SavedAddresses  map[string]string            `yaml:"saved_addresses"  json:"saved_addresses"`
}

// NetworkDescriptor identifies an ICON network.
type NetworkDescriptor struct {
	Name            string `yaml:"name"            json:"name"`
	APIEndpoint     string `yaml:"api_endpoint"    json:"api_endpoint"`
	NID             int64  `yaml:"nid"             json:"nid"`
	TrackerEndpoint string `yaml:"tracker_endpoint" json:"tracker_endpoint"`
}

// KeystoreEntry is an imported keystore. Filename is relative to the
// managed keystore directory.
type KeystoreEntry struct {
	Name     string `yaml:"keystore_name"     json:"keystore_name"`
	Address  string `yaml:"keystore_address"  json:"keystore_address"`
	Filename string `yaml:"keystore_filename" json:"keystore_filename"`
}

// Default returns a fresh default document.
func Default() *AppConfig {
	return &AppConfig{
		CustomNetworks: make(map[string]NetworkDescriptor),
		DefaultNetwork: DefaultNetworkName,
		Keystores:      []KeystoreEntry{},
		Mode:           ModeReadWrite,
		SavedAddresses: make(map[string]string),
	}
}

// Clone returns a deep copy of c.
func (c *AppConfig) Clone() *AppConfig {
	out := *c
	out.CustomNetworks = make(map[string]NetworkDescriptor, len(c.CustomNetworks))
	for k, v := range c.CustomNetworks {
		out.CustomNetworks[k] = v
	}
	out.SavedAddresses = make(map[string]string, len(c.SavedAddresses))
	for k, v := range c.SavedAddresses {
		out.SavedAddresses[k] = v
	}
	out.Keystores = slices.Clone(c.Keystores)
	if out.Keystores == nil {
		out.Keystores = []KeystoreEntry{}
	}
	return &out
}

// LookupNetwork resolves name against the built-in table first, then the
// custom networks.
func (c *AppConfig) LookupNetwork(name string) (NetworkDescriptor, error) {
	key := NormalizeName(name)
	if n, ok := BuiltinNetwork(key); ok {
		return n, nil
	}
	if n, ok := c.CustomNetworks[key]; ok {
		return n, nil
	}
	return NetworkDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
}

// FindKeystore returns the entry whose nickname matches name
// case-insensitively, and its index.
func (c *AppConfig) FindKeystore(name string) (KeystoreEntry, int, bool) {
	key := NormalizeName(name)
	for i, e := range c.Keystores {
		if strings.EqualFold(e.Name, key) {
			return e, i, true
		}
	}
	return KeystoreEntry{}, -1, false
}

// FindKeystoreByAddress returns the entry holding address, compared
// case-insensitively.
func (c *AppConfig) FindKeystoreByAddress(address string) (KeystoreEntry, int, bool) {
	for i, e := range c.Keystores {
		if strings.EqualFold(e.Address, strings.TrimSpace(address)) {
			return e, i, true
		}
	}
	return KeystoreEntry{}, -1, false
}

// NormalizeName lowercases s and strips all whitespace. Keystore
// nicknames, network names and address-book labels share this form.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
