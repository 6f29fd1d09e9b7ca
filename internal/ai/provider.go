// Package ai implements the multi-provider content generation client: the
// provider registry, the prompt builders, and the dispatch loop that falls
// back from one generation provider to the next.
package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured marks a provider visited without a credential.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptyContent is returned when a response carries no usable text.
	ErrEmptyContent = errors.New("no content received from provider")

	// ErrAllProvidersFailed is the only error surfaced after a fallback chain.
	ErrAllProvidersFailed = errors.New("all content generation providers failed")
)

// Provider keys in dispatch priority order: free tiers first, paid last.
const (
	KeyGroq        = "groq"
	KeyGoogle      = "google"
	KeyHuggingFace = "huggingface"
	KeyCohere      = "cohere"
	KeyOpenAI      = "openai"
	KeyAnthropic   = "anthropic"
)

// DefaultOrder is the priority order of the built-in providers.
var DefaultOrder = []string{KeyGroq, KeyGoogle, KeyHuggingFace, KeyCohere, KeyOpenAI, KeyAnthropic}

// Persona prefixes every prompt so each provider answers in the same voice.
const (
	persona          = "You are an expert SEO consultant specializing in healthcare, edtech, and AI industries in India."
	chatSystemPrompt = persona + " Provide detailed, actionable strategies optimized for the Indian market."
)

// Provider is one third-party text generation service. Implementations only
// describe the wire format; the Client owns transport, timeouts and fallback.
type Provider interface {
	// Key is the stable identifier used in configuration and lookups.
	Key() string

	// Name is the human-readable provider name reported in results.
	Name() string

	// Configured reports whether a credential is present. Unconfigured
	// providers are never called.
	Configured() bool

	// Endpoint is the URL the request is POSTed to. It may embed the
	// credential for providers that authenticate by query parameter.
	Endpoint() string

	// Headers returns the provider's auth and version headers.
	Headers() http.Header

	// BuildPayload maps a prompt to the provider's JSON request body.
	BuildPayload(prompt string) any

	// ParseResponse extracts the generated text from a response body. It
	// returns "" when the expected field path is missing or malformed.
	ParseResponse(body []byte) string
}

// ProviderConfig holds the configuration needed to create a provider.
type ProviderConfig struct {
	Provider string // one of DefaultOrder
	APIKey   string
	Model    string
	Endpoint string // overrides the public API URL when set
}

// NewProvider creates the appropriate provider based on config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case KeyGroq:
		return NewGroqProvider(cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	case KeyGoogle:
		return NewGoogleProvider(cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	case KeyHuggingFace:
		return NewHuggingFaceProvider(cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	case KeyCohere:
		return NewCohereProvider(cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	case KeyOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	case KeyAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// identity carries the fields every provider shares.
type identity struct {
	key      string
	name     string
	apiKey   string
	model    string
	endpoint string
}

func (s identity) Key() string      { return s.key }
func (s identity) Name() string     { return s.name }
func (s identity) Configured() bool { return s.apiKey != "" }
func (s identity) Endpoint() string { return s.endpoint }

// bearerHeaders returns the Authorization header used by most providers.
func bearerHeaders(apiKey string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+apiKey)
	return h
}

// orDefault returns v, or def when v is empty.
func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
