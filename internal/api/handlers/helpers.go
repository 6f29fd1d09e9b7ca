package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; log but cannot change status.
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// parseLimit reads the optional "limit" query parameter. A missing value
// yields defaultLimit; values above maxLimit are clamped.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter: %w", "limit", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %q parameter: must be >= 1", "limit")
	}
	return min(n, maxLimit), nil
}
