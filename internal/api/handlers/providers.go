package handlers

import (
	"net/http"

	"github.com/satishskid/gbseo/internal/ai"
)

type providerInfo struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// ListProviders handles GET /api/providers. It returns the registry in
// priority order with each provider's configured flag, plus the index of
// the provider the next generation will try first.
func ListProviders(client *ai.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers := client.Registry().Providers()
		infos := make([]providerInfo, 0, len(providers))
		for _, p := range providers {
			infos = append(infos, providerInfo{Key: p.Key(), Name: p.Name(), Configured: p.Configured()})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"providers":  infos,
			"configured": client.Registry().ConfiguredCount(),
			"cursor":     client.Cursor(),
		})
	}
}

// Health handles GET /api/health.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
