package models

import "time"

// Attempt records one provider visited during a fallback chain.
type Attempt struct {
	Provider string `json:"provider"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GenerationResult is the outcome of one fallback chain. Success implies a
// non-empty Content; failure implies a non-empty Error.
type GenerationResult struct {
	Success     bool      `json:"success"`
	Content     string    `json:"content"`
	Error       string    `json:"error,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	ProviderKey string    `json:"provider_key,omitempty"`
	Attempts    []Attempt `json:"attempts"`
}

// GenerationRecord is a persisted generation outcome for one user.
type GenerationRecord struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id"`
	UserEmail    string    `json:"user_email"`
	ContentType  string    `json:"content_type"`
	BusinessName string    `json:"business_name"`
	Provider     string    `json:"provider,omitempty"`
	Success      bool      `json:"success"`
	Content      string    `json:"content,omitempty"`
	Error        string    `json:"error,omitempty"`
	AttemptsJSON string    `json:"attempts_json"`
	Pending      bool      `json:"pending,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
