package ai

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Compile-time interface check.
var _ Provider = (*HuggingFaceProvider)(nil)

const (
	huggingFaceAPIURL       = "https://api-inference.huggingface.co/models/"
	defaultHuggingFaceModel = "mistralai/Mistral-7B-Instruct-v0.1"
)

// HuggingFaceProvider implements Provider using the Hugging Face Inference
// API text-generation task.
type HuggingFaceProvider struct {
	identity
}

// NewHuggingFaceProvider creates a HuggingFaceProvider. The model is part of
// the default endpoint path.
func NewHuggingFaceProvider(apiKey, model, endpoint string) *HuggingFaceProvider {
	model = orDefault(model, defaultHuggingFaceModel)
	return &HuggingFaceProvider{identity{
		key:      KeyHuggingFace,
		name:     "Hugging Face (Mistral)",
		apiKey:   apiKey,
		model:    model,
		endpoint: orDefault(endpoint, huggingFaceAPIURL+model),
	}}
}

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type huggingFaceGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func (p *HuggingFaceProvider) Headers() http.Header { return bearerHeaders(p.apiKey) }

func (p *HuggingFaceProvider) BuildPayload(prompt string) any {
	return huggingFaceRequest{
		Inputs: persona + " " + prompt,
		Parameters: huggingFaceParameters{
			MaxNewTokens:   2000,
			Temperature:    chatTemperature,
			ReturnFullText: false,
		},
	}
}

// ParseResponse accepts either an array of generations or a single object.
func (p *HuggingFaceProvider) ParseResponse(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var gens []huggingFaceGeneration
		if err := json.Unmarshal(body, &gens); err != nil || len(gens) == 0 {
			return ""
		}
		return gens[0].GeneratedText
	}

	var gen huggingFaceGeneration
	if err := json.Unmarshal(body, &gen); err != nil {
		return ""
	}
	return gen.GeneratedText
}
