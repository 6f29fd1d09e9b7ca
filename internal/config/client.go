package config

import (
	"fmt"
	"time"

	"github.com/satishskid/gbseo/internal/ai"
)

// NewGenerationClient builds the provider registry and fallback client
// described by the providers and generation sections.
func (c *Config) NewGenerationClient() (*ai.Client, error) {
	cfgs := make(map[string]ai.ProviderConfig)
	for key, p := range c.Providers.ByKey() {
		cfgs[key] = ai.ProviderConfig{APIKey: p.APIKey, Model: p.Model, Endpoint: p.Endpoint}
	}
	reg, err := ai.NewDefaultRegistry(cfgs)
	if err != nil {
		return nil, fmt.Errorf("building provider registry: %w", err)
	}
	return ai.NewClient(reg, ai.ClientOptions{
		Rotation:       ai.RotationPolicy(c.Generation.Rotation),
		AttemptTimeout: time.Duration(c.Generation.AttemptTimeoutSeconds) * time.Second,
	}), nil
}
