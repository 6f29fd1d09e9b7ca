package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/satishskid/gbseo/internal/models"
)

// RotationPolicy decides where the cursor lands after a successful attempt.
type RotationPolicy string

const (
	// RotationSticky keeps the cursor on the provider that succeeded, so the
	// cheapest working provider is tried first next time.
	RotationSticky RotationPolicy = "sticky"

	// RotationRoundRobin advances the cursor past the provider that
	// succeeded, spreading load even when every call succeeds.
	RotationRoundRobin RotationPolicy = "round_robin"
)

const (
	defaultAttemptTimeout = 30 * time.Second
	maxResponseBytes      = 4 << 20
)

// ClientOptions configures a Client. Zero values select the defaults.
type ClientOptions struct {
	Rotation       RotationPolicy
	AttemptTimeout time.Duration
	HTTPClient     *http.Client
}

// Client dispatches content requests across a Registry with fallback.
//
// The cursor used by Generate is shared by every caller of the same Client.
// Overlapping calls may interleave cursor updates; the last chain to finish
// wins. Callers needing deterministic rotation should hold their own cursor
// and call Dispatch.
type Client struct {
	registry       *Registry
	httpClient     *http.Client
	rotation       RotationPolicy
	attemptTimeout time.Duration

	mu     sync.Mutex
	cursor int
}

// NewClient creates a Client over registry.
func NewClient(registry *Registry, opts ClientOptions) *Client {
	c := &Client{
		registry:       registry,
		httpClient:     opts.HTTPClient,
		rotation:       opts.Rotation,
		attemptTimeout: opts.AttemptTimeout,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.rotation == "" {
		c.rotation = RotationSticky
	}
	if c.attemptTimeout <= 0 {
		c.attemptTimeout = defaultAttemptTimeout
	}
	return c
}

// Registry returns the registry the client dispatches over.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Cursor returns the index of the provider Generate will try first.
func (c *Client) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Generate runs a fallback chain starting from the client's shared cursor
// and stores the resulting cursor for the next call.
func (c *Client) Generate(ctx context.Context, req models.ContentRequest) models.GenerationResult {
	start := c.Cursor()

	result, next := c.Dispatch(ctx, req, start)

	c.mu.Lock()
	c.cursor = next
	c.mu.Unlock()

	return result
}

// GenerateKeywords generates a keyword research strategy for p.
func (c *Client) GenerateKeywords(ctx context.Context, p models.BusinessProfile) models.GenerationResult {
	return c.Generate(ctx, models.ContentRequest{Type: models.ContentKeywords, Business: p})
}

// GenerateContentStrategy generates a content strategy for p.
func (c *Client) GenerateContentStrategy(ctx context.Context, p models.BusinessProfile) models.GenerationResult {
	return c.Generate(ctx, models.ContentRequest{Type: models.ContentStrategy, Business: p})
}

// GenerateSocialMedia generates social media posts for p.
func (c *Client) GenerateSocialMedia(ctx context.Context, p models.BusinessProfile) models.GenerationResult {
	return c.Generate(ctx, models.ContentRequest{Type: models.ContentSocial, Business: p})
}

// GenerateTechnicalSEO generates a technical SEO strategy for p.
func (c *Client) GenerateTechnicalSEO(ctx context.Context, p models.BusinessProfile) models.GenerationResult {
	return c.Generate(ctx, models.ContentRequest{Type: models.ContentTechnical, Business: p})
}

// GenerateConversionStrategy generates a conversion optimization strategy for p.
func (c *Client) GenerateConversionStrategy(ctx context.Context, p models.BusinessProfile) models.GenerationResult {
	return c.Generate(ctx, models.ContentRequest{Type: models.ContentConversion, Business: p})
}

// Dispatch tries every registered provider at most once, in rotation from
// start, and returns the first successful result together with the cursor
// the next call should start from. Dispatch holds no shared state.
func (c *Client) Dispatch(ctx context.Context, req models.ContentRequest, start int) (models.GenerationResult, int) {
	prompt, err := BuildPrompt(req.Type, req.Business)
	if err != nil {
		return failure(err.Error(), nil), start
	}
	return c.DispatchPrompt(ctx, prompt, start)
}

// DispatchPrompt is Dispatch for an already-built prompt.
func (c *Client) DispatchPrompt(ctx context.Context, prompt string, start int) (models.GenerationResult, int) {
	n := c.registry.Len()
	if n == 0 {
		return failure(fmt.Errorf("%w: no providers registered", ErrAllProvidersFailed).Error(), nil), 0
	}

	cursor := ((start % n) + n) % n
	attempts := make([]models.Attempt, 0, n)
	var lastErr error

	for range n {
		if err := ctx.Err(); err != nil {
			return failure(fmt.Sprintf("generation cancelled: %v", err), attempts), cursor
		}

		p := c.registry.At(cursor)
		next := (cursor + 1) % n

		if !p.Configured() {
			attempts = append(attempts, models.Attempt{
				Provider: p.Key(),
				Skipped:  true,
				Error:    ErrNotConfigured.Error(),
			})
			cursor = next
			continue
		}

		text, err := c.attempt(ctx, p, prompt)
		if err != nil {
			slog.Warn("provider failed", "provider", p.Key(), "error", err)
			attempts = append(attempts, models.Attempt{Provider: p.Key(), Error: err.Error()})
			lastErr = err
			cursor = next
			continue
		}

		attempts = append(attempts, models.Attempt{Provider: p.Key()})
		if c.rotation == RotationRoundRobin {
			cursor = next
		}
		return models.GenerationResult{
			Success:     true,
			Content:     text,
			Provider:    p.Name(),
			ProviderKey: p.Key(),
			Attempts:    attempts,
		}, cursor
	}

	if lastErr == nil {
		lastErr = ErrNotConfigured
	}
	return failure(fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr).Error(), attempts), cursor
}

// Complete sends prompt to the single provider registered under key, without
// fallback. It is used to probe provider credentials.
func (c *Client) Complete(ctx context.Context, key, prompt string) (string, error) {
	p, ok := c.registry.Lookup(key)
	if !ok {
		return "", fmt.Errorf("unknown provider %q", key)
	}
	if !p.Configured() {
		return "", fmt.Errorf("%s: %w", key, ErrNotConfigured)
	}
	return c.attempt(ctx, p, prompt)
}

// attempt performs one bounded call to p.
func (c *Client) attempt(ctx context.Context, p Provider, prompt string) (string, error) {
	t := timeout.New[string](timeout.Config{
		DefaultTimeout: c.attemptTimeout,
	})
	return t.Execute(ctx, c.attemptTimeout, func(ctx context.Context) (string, error) {
		return c.call(ctx, p, prompt)
	})
}

// call POSTs the provider payload and returns the normalized text.
func (c *Client) call(ctx context.Context, p Provider, prompt string) (string, error) {
	body, err := json.Marshal(p.BuildPayload(prompt))
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for name, values := range p.Headers() {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("calling generation provider", "provider", p.Key())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s API error: unexpected status code %d", p.Name(), resp.StatusCode)
	}

	text := strings.TrimSpace(p.ParseResponse(respBody))
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

func failure(msg string, attempts []models.Attempt) models.GenerationResult {
	if attempts == nil {
		attempts = []models.Attempt{}
	}
	return models.GenerationResult{
		Success:  false,
		Error:    msg,
		Attempts: attempts,
	}
}
