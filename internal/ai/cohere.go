package ai

import (
	"encoding/json"
	"net/http"
)

// Compile-time interface check.
var _ Provider = (*CohereProvider)(nil)

const (
	cohereAPIURL       = "https://api.cohere.ai/v1/generate"
	defaultCohereModel = "command"
)

// CohereProvider implements Provider using the Cohere Generate API.
type CohereProvider struct {
	identity
}

// NewCohereProvider creates a CohereProvider.
func NewCohereProvider(apiKey, model, endpoint string) *CohereProvider {
	return &CohereProvider{identity{
		key:      KeyCohere,
		name:     "Cohere Generate",
		apiKey:   apiKey,
		model:    orDefault(model, defaultCohereModel),
		endpoint: orDefault(endpoint, cohereAPIURL),
	}}
}

type cohereRequest struct {
	Model             string   `json:"model"`
	Prompt            string   `json:"prompt"`
	MaxTokens         int      `json:"max_tokens"`
	Temperature       float64  `json:"temperature"`
	K                 int      `json:"k"`
	StopSequences     []string `json:"stop_sequences"`
	ReturnLikelihoods string   `json:"return_likelihoods"`
}

type cohereResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

func (p *CohereProvider) Headers() http.Header { return bearerHeaders(p.apiKey) }

func (p *CohereProvider) BuildPayload(prompt string) any {
	return cohereRequest{
		Model:             p.model,
		Prompt:            persona + " " + prompt,
		MaxTokens:         2000,
		Temperature:       chatTemperature,
		K:                 0,
		StopSequences:     []string{},
		ReturnLikelihoods: "NONE",
	}
}

// ParseResponse returns the text of the first generation.
func (p *CohereProvider) ParseResponse(body []byte) string {
	var resp cohereResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Generations) == 0 {
		return ""
	}
	return resp.Generations[0].Text
}
