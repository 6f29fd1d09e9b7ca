package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Compile-time interface check.
var _ Provider = (*GoogleProvider)(nil)

const (
	googleAPIURLTmpl   = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	defaultGoogleModel = "gemini-1.5-pro-latest"
)

// GoogleProvider implements Provider using the Gemini generateContent API.
// It authenticates with a key query parameter instead of a header.
type GoogleProvider struct {
	identity
}

// NewGoogleProvider creates a GoogleProvider. The credential is appended to
// the endpoint as the key query parameter.
func NewGoogleProvider(apiKey, model, endpoint string) *GoogleProvider {
	model = orDefault(model, defaultGoogleModel)
	base := orDefault(endpoint, fmt.Sprintf(googleAPIURLTmpl, model))
	return &GoogleProvider{identity{
		key:      KeyGoogle,
		name:     "Google Gemini",
		apiKey:   apiKey,
		model:    model,
		endpoint: withKey(base, apiKey),
	}}
}

// withKey sets the key query parameter on endpoint, keeping any query the
// endpoint already carries. An unparsable endpoint is returned unchanged
// and fails at request time.
func withKey(endpoint, apiKey string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *GoogleProvider) Headers() http.Header { return make(http.Header) }

func (p *GoogleProvider) BuildPayload(prompt string) any {
	return geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: persona + " " + prompt}}},
		},
	}
}

// ParseResponse returns the text of the first part of the first candidate.
func (p *GoogleProvider) ParseResponse(body []byte) string {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}
