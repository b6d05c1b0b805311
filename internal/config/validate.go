package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks every invariant of the document. The returned error
// names the offending value; callers wrap it with ErrConfigCorrupt or
// ErrConfigInvariant depending on direction.
func Validate(c *AppConfig) error {
	if !c.Mode.Valid() {
		return fmt.Errorf("mode %q is not one of %q, %q", c.Mode, ModeRead, ModeReadWrite)
	}

	for key, n := range c.CustomNetworks {
		if err := ValidateNetwork(n); err != nil {
			return err
		}
		if key != n.Name {
			return fmt.Errorf("custom network key %q does not match its name %q", key, n.Name)
		}
		if IsBuiltinNetwork(key) {
			return fmt.Errorf("custom network %q shadows a built-in network", key)
		}
	}

	if c.DefaultNetwork == "" {
		return fmt.Errorf("default_network is empty")
	}
	if _, err := c.LookupNetwork(c.DefaultNetwork); err != nil {
		return fmt.Errorf("default_network: %w", err)
	}

	names := make(map[string]bool, len(c.Keystores))
	addrs := make(map[string]bool, len(c.Keystores))
	for _, e := range c.Keystores {
		if e.Name == "" || e.Name != NormalizeName(e.Name) {
			return fmt.Errorf("keystore name %q is not normalized", e.Name)
		}
		if e.Address == "" {
			return fmt.Errorf("keystore %q has no address", e.Name)
		}
		if e.Filename == "" || strings.ContainsAny(e.Filename, `/\`) {
			return fmt.Errorf("keystore %q has invalid filename %q", e.Name, e.Filename)
		}
		if names[e.Name] {
			return fmt.Errorf("duplicate keystore name %q", e.Name)
		}
		addr := strings.ToLower(e.Address)
		if addrs[addr] {
			return fmt.Errorf("duplicate keystore address %q", e.Address)
		}
		names[e.Name] = true
		addrs[addr] = true
	}

	if c.DefaultKeystore != "" {
		if _, _, ok := c.FindKeystore(c.DefaultKeystore); !ok {
			return fmt.Errorf("default_keystore %q does not match any keystore", c.DefaultKeystore)
		}
	}

	labels := make(map[string]string, len(c.SavedAddresses))
	for label := range c.SavedAddresses {
		key := NormalizeName(label)
		if key == "" {
			return fmt.Errorf("saved address with empty label")
		}
		if prev, ok := labels[key]; ok {
			return fmt.Errorf("saved address labels %q and %q collide", prev, label)
		}
		labels[key] = label
	}
	return nil
}

// ValidateNetwork checks a single network descriptor.
func ValidateNetwork(n NetworkDescriptor) error {
	if n.Name == "" || n.Name != NormalizeName(n.Name) {
		return fmt.Errorf("network name %q must be lowercase without whitespace", n.Name)
	}
	if n.NID <= 0 {
		return fmt.Errorf("network %q: nid must be positive, got %d", n.Name, n.NID)
	}
	if err := validURL(n.APIEndpoint); err != nil {
		return fmt.Errorf("network %q: api_endpoint: %w", n.Name, err)
	}
	if err := validURL(n.TrackerEndpoint); err != nil {
		return fmt.Errorf("network %q: tracker_endpoint: %w", n.Name, err)
	}
	return nil
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q is not a URL: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
