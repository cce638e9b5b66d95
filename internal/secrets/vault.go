// Package secrets holds runtime credentials, such as the SMTP password used
// for provisioning mail, and lets them be swapped without a restart.
package secrets

import (
	"fmt"
	"sync"
)

// Loader fetches the current secret values from their source.
type Loader func() (map[string]string, error)

// Vault caches secret values and reloads them on demand. main wires Reload
// to SIGHUP so rotated credentials are picked up live.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault runs the loader once and fails fast if the source is unreadable.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the value for key, or "" when the vault has none.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Reload re-runs the loader and swaps the value set in one step. A failing
// loader leaves the previous values in place.
func (v *Vault) Reload() error {
	vals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = vals
	v.mu.Unlock()
	return nil
}
