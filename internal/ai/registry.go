package ai

import (
	"errors"
	"fmt"
)

// Registry holds the fixed, ordered list of known providers. Unconfigured
// providers stay enumerated; the dispatch loop skips them.
type Registry struct {
	providers []Provider
	byKey     map[string]int
}

// NewRegistry creates a Registry with providers in the given priority order.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		byKey:     make(map[string]int, len(providers)),
	}
	for _, p := range providers {
		if p == nil {
			return nil, errors.New("nil provider")
		}
		if _, dup := r.byKey[p.Key()]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.Key())
		}
		r.byKey[p.Key()] = len(r.providers)
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// NewDefaultRegistry builds every built-in provider in DefaultOrder. Keys
// missing from cfgs produce an unconfigured provider.
func NewDefaultRegistry(cfgs map[string]ProviderConfig) (*Registry, error) {
	for key := range cfgs {
		if _, err := NewProvider(ProviderConfig{Provider: key}); err != nil {
			return nil, err
		}
	}

	providers := make([]Provider, 0, len(DefaultOrder))
	for _, key := range DefaultOrder {
		cfg := cfgs[key]
		cfg.Provider = key
		p, err := NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewRegistry(providers...)
}

// Lookup returns the provider registered under key.
func (r *Registry) Lookup(key string) (Provider, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return r.providers[i], true
}

// At returns the provider at priority index i.
func (r *Registry) At(i int) Provider {
	return r.providers[i]
}

// Len returns the number of registered providers, configured or not.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Providers returns the providers in priority order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ConfiguredCount returns how many providers have a credential.
func (r *Registry) ConfiguredCount() int {
	n := 0
	for _, p := range r.providers {
		if p.Configured() {
			n++
		}
	}
	return n
}
