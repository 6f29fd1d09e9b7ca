package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Providers  ProvidersConfig  `toml:"providers"`
	Generation GenerationConfig `toml:"generation"`
	Access     AccessConfig     `toml:"access"`
	Auth       AuthConfig       `toml:"auth"`
	Payments   PaymentsConfig   `toml:"payments"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ProviderConfig holds the settings for one generation provider. An empty
// APIKey disables the provider.
type ProviderConfig struct {
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
}

// ProvidersConfig holds one section per generation provider.
type ProvidersConfig struct {
	Groq        ProviderConfig `toml:"groq"`
	Google      ProviderConfig `toml:"google"`
	HuggingFace ProviderConfig `toml:"huggingface"`
	Cohere      ProviderConfig `toml:"cohere"`
	OpenAI      ProviderConfig `toml:"openai"`
	Anthropic   ProviderConfig `toml:"anthropic"`
}

// ByKey returns the provider sections keyed by provider key.
func (p ProvidersConfig) ByKey() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"groq":        p.Groq,
		"google":      p.Google,
		"huggingface": p.HuggingFace,
		"cohere":      p.Cohere,
		"openai":      p.OpenAI,
		"anthropic":   p.Anthropic,
	}
}

// GenerationConfig controls the fallback client.
type GenerationConfig struct {
	Rotation              string `toml:"rotation"`
	AttemptTimeoutSeconds int    `toml:"attempt_timeout_seconds"`
	EnrichWebsite         bool   `toml:"enrich_website"`
}

// AccessConfig holds entitlement settings.
type AccessConfig struct {
	InternalTeamEmails    []string `toml:"internal_team_emails"`
	PaymentGatewayEnabled bool     `toml:"payment_gateway_enabled"`
	FreeGenerations       int      `toml:"free_generations"`
}

// AuthConfig holds session token verification settings. When
// JWTPublicKeyFile is empty the X-User-Email header is trusted instead.
type AuthConfig struct {
	JWTPublicKeyFile string `toml:"jwt_public_key_file"`
	Issuer           string `toml:"issuer"`
	ClerkSecretKey   string `toml:"clerk_secret_key"`
}

// PaymentsConfig holds payment gateway credentials.
type PaymentsConfig struct {
	RazorpayKeyID     string `toml:"razorpay_key_id"`
	RazorpayKeySecret string `toml:"razorpay_key_secret"`
}

const defaultConfigContent = `[server]
host = "localhost"
port = 3000

# Providers are tried in this order: groq, google, huggingface, cohere,
# openai, anthropic. Leave api_key empty to disable a provider, or set it
# through the matching environment variable.
[providers.groq]
api_key = ""                      # GROQ_API_KEY
model = "llama-3.3-70b-versatile"

[providers.google]
api_key = ""                      # GOOGLE_AI_API_KEY
model = "gemini-1.5-pro-latest"

[providers.huggingface]
api_key = ""                      # HUGGINGFACE_API_KEY
model = "mistralai/Mistral-7B-Instruct-v0.1"

[providers.cohere]
api_key = ""                      # COHERE_API_KEY
model = "command"

[providers.openai]
api_key = ""                      # OPENAI_API_KEY
model = "gpt-4"

[providers.anthropic]
api_key = ""                      # ANTHROPIC_API_KEY
model = "claude-3-sonnet-20240229"

[generation]
rotation = "sticky"               # "sticky" or "round_robin"
attempt_timeout_seconds = 30
enrich_website = true

[access]
internal_team_emails = []         # INTERNAL_TEAM_EMAILS (comma-separated)
payment_gateway_enabled = false   # PAYMENT_GATEWAY_ENABLED
free_generations = 5

[auth]
jwt_public_key_file = ""          # PEM public key of the session issuer
issuer = ""
clerk_secret_key = ""             # CLERK_SECRET_KEY

[payments]
razorpay_key_id = ""              # RAZORPAY_KEY_ID
razorpay_key_secret = ""          # RAZORPAY_KEY_SECRET
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("generation", "attempt_timeout_seconds") {
		if cfg.Generation.AttemptTimeoutSeconds < 1 {
			return fmt.Errorf("invalid generation.attempt_timeout_seconds %d: must be >= 1", cfg.Generation.AttemptTimeoutSeconds)
		}
	}
	if md.IsDefined("access", "free_generations") {
		if cfg.Access.FreeGenerations < 0 {
			return fmt.Errorf("invalid access.free_generations %d: must be >= 0", cfg.Access.FreeGenerations)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Generation.Rotation == "" {
		cfg.Generation.Rotation = "sticky"
	}
	if cfg.Generation.AttemptTimeoutSeconds == 0 {
		cfg.Generation.AttemptTimeoutSeconds = 30
	}
	// A missing bool decodes as false; only default enrich_website when the
	// key is absent so an explicit false is respected.
	if !md.IsDefined("generation", "enrich_website") {
		cfg.Generation.EnrichWebsite = true
	}
	// free_generations = 0 is a valid explicit value (no free preview).
	if !md.IsDefined("access", "free_generations") {
		cfg.Access.FreeGenerations = 5
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) error {
	keys := []struct {
		env  string
		dest *string
	}{
		{"GROQ_API_KEY", &cfg.Providers.Groq.APIKey},
		{"GOOGLE_AI_API_KEY", &cfg.Providers.Google.APIKey},
		{"HUGGINGFACE_API_KEY", &cfg.Providers.HuggingFace.APIKey},
		{"COHERE_API_KEY", &cfg.Providers.Cohere.APIKey},
		{"OPENAI_API_KEY", &cfg.Providers.OpenAI.APIKey},
		{"ANTHROPIC_API_KEY", &cfg.Providers.Anthropic.APIKey},
		{"CLERK_SECRET_KEY", &cfg.Auth.ClerkSecretKey},
		{"RAZORPAY_KEY_ID", &cfg.Payments.RazorpayKeyID},
		{"RAZORPAY_KEY_SECRET", &cfg.Payments.RazorpayKeySecret},
	}
	for _, k := range keys {
		if v := os.Getenv(k.env); v != "" {
			*k.dest = v
		}
	}

	if v := os.Getenv("INTERNAL_TEAM_EMAILS"); v != "" {
		cfg.Access.InternalTeamEmails = strings.Split(v, ",")
	}

	// Only the literal "true" enables the gateway, matching how the flag is
	// set in deployment environments.
	if v := os.Getenv("PAYMENT_GATEWAY_ENABLED"); v != "" {
		cfg.Access.PaymentGatewayEnabled = v == "true"
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}

	return nil
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.Generation.Rotation {
	case "sticky", "round_robin":
		// valid
	default:
		return fmt.Errorf("invalid generation.rotation %q: must be \"sticky\" or \"round_robin\"", cfg.Generation.Rotation)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	configured := 0
	for _, p := range cfg.Providers.ByKey() {
		if p.APIKey != "" {
			configured++
		}
	}
	if configured == 0 {
		slog.Warn("no generation provider api_key configured: every generation request will fail")
	}

	return nil
}
