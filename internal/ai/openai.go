package ai

import (
	"encoding/json"
	"net/http"
)

// Compile-time interface checks.
var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*GroqProvider)(nil)
)

const (
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
	groqAPIURL   = "https://api.groq.com/openai/v1/chat/completions"

	defaultOpenAIModel = "gpt-4"
	defaultGroqModel   = "llama-3.3-70b-versatile"

	chatMaxTokens   = 4000
	chatTemperature = 0.7
)

// chatRequest is the request body for OpenAI-compatible Chat Completions APIs.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in a chat request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from an OpenAI-compatible API.
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatCompletion implements the payload and parser shared by OpenAI and Groq.
type chatCompletion struct {
	identity
}

func (c chatCompletion) Headers() http.Header { return bearerHeaders(c.apiKey) }

func (c chatCompletion) BuildPayload(prompt string) any {
	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}
}

// ParseResponse returns the content of the first choice.
func (c chatCompletion) ParseResponse(body []byte) string {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	chatCompletion
}

// NewOpenAIProvider creates an OpenAIProvider. Empty model and endpoint fall
// back to the defaults.
func NewOpenAIProvider(apiKey, model, endpoint string) *OpenAIProvider {
	return &OpenAIProvider{chatCompletion{identity{
		key:      KeyOpenAI,
		name:     "OpenAI GPT-4",
		apiKey:   apiKey,
		model:    orDefault(model, defaultOpenAIModel),
		endpoint: orDefault(endpoint, openaiAPIURL),
	}}}
}

// GroqProvider implements Provider using Groq's OpenAI-compatible endpoint.
type GroqProvider struct {
	chatCompletion
}

// NewGroqProvider creates a GroqProvider.
func NewGroqProvider(apiKey, model, endpoint string) *GroqProvider {
	return &GroqProvider{chatCompletion{identity{
		key:      KeyGroq,
		name:     "Groq (Llama)",
		apiKey:   apiKey,
		model:    orDefault(model, defaultGroqModel),
		endpoint: orDefault(endpoint, groqAPIURL),
	}}}
}
