package ai

import (
	"encoding/json"
	"net/http"
)

// Compile-time interface check.
var _ Provider = (*AnthropicProvider)(nil)

const (
	anthropicAPIURL       = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-3-sonnet-20240229"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	identity
}

// NewAnthropicProvider creates an AnthropicProvider.
func NewAnthropicProvider(apiKey, model, endpoint string) *AnthropicProvider {
	return &AnthropicProvider{identity{
		key:      KeyAnthropic,
		name:     "Claude",
		apiKey:   apiKey,
		model:    orDefault(model, defaultAnthropicModel),
		endpoint: orDefault(endpoint, anthropicAPIURL),
	}}
}

// anthropicRequest is the request body for the Anthropic Messages API.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the Anthropic request.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Anthropic Messages API.
type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *AnthropicProvider) Headers() http.Header {
	h := make(http.Header)
	h.Set("x-api-key", p.apiKey)
	h.Set("anthropic-version", anthropicVersion)
	return h
}

func (p *AnthropicProvider) BuildPayload(prompt string) any {
	return anthropicRequest{
		Model:     p.model,
		MaxTokens: chatMaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: persona + " " + prompt},
		},
	}
}

// ParseResponse returns the text of the first content block.
func (p *AnthropicProvider) ParseResponse(body []byte) string {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Content) == 0 {
		return ""
	}
	return resp.Content[0].Text
}
