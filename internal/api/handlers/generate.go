package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/satishskid/gbseo/internal/access"
	"github.com/satishskid/gbseo/internal/ai"
	"github.com/satishskid/gbseo/internal/auth"
	"github.com/satishskid/gbseo/internal/models"
	"github.com/satishskid/gbseo/internal/site"
	"github.com/satishskid/gbseo/internal/storage"
)

// enrichTimeout bounds website inspection so a slow site cannot eat into
// the generation budget.
const enrichTimeout = 10 * time.Second

const quotaMessage = "Free generation limit reached"

// generateResponse is the body of every generation response.
type generateResponse struct {
	models.GenerationResult
	RequestID            string `json:"request_id"`
	RemainingGenerations *int   `json:"remaining_generations,omitempty"`
}

// Generator serves the generation endpoints.
type Generator struct {
	client    *ai.Client
	store     *storage.Store
	policy    *access.Policy
	inspector *site.Inspector
}

// NewGenerator creates a Generator. A nil inspector disables website
// enrichment.
func NewGenerator(client *ai.Client, store *storage.Store, policy *access.Policy, inspector *site.Inspector) *Generator {
	return &Generator{client: client, store: store, policy: policy, inspector: inspector}
}

// Generate handles POST /api/generate. The body is a ContentRequest:
// {"type": "...", "business": {...}}.
func (g *Generator) Generate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type     string                 `json:"type"`
			Business models.BusinessProfile `json:"business"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		g.serve(w, r, body.Type, body.Business)
	}
}

// GenerateType handles POST /api/generate/{type}. The body is a bare
// BusinessProfile.
func (g *Generator) GenerateType() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var profile models.BusinessProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		g.serve(w, r, chi.URLParam(r, "type"), profile)
	}
}

func (g *Generator) serve(w http.ResponseWriter, r *http.Request, rawType string, profile models.BusinessProfile) {
	ctx := r.Context()

	acc := g.policy.Resolve(auth.EmailFromContext(ctx))
	if acc.Level == access.LevelNone {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	contentType, err := models.ParseContentType(rawType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The count here only spares exhausted users the website fetch. The
	// reservation below is what enforces the allowance.
	limited := !acc.IsInternalTeam
	if limited {
		used, err := g.store.CountSuccessfulGenerations(ctx, acc.Email)
		if err != nil {
			slog.Error("failed to count generations", "email", acc.Email, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to check usage")
			return
		}
		if g.policy.Subscription(acc, used).Exhausted() {
			writeError(w, http.StatusPaymentRequired, quotaMessage)
			return
		}
	}

	profile = g.enrich(ctx, profile)
	if err := profile.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := &models.GenerationRecord{
		RequestID:    uuid.NewString(),
		UserEmail:    acc.Email,
		ContentType:  string(contentType),
		BusinessName: profile.Name,
	}
	if limited {
		err := g.store.ReserveGeneration(ctx, rec, g.policy.FreeGenerations())
		if errors.Is(err, storage.ErrQuotaExceeded) {
			writeError(w, http.StatusPaymentRequired, quotaMessage)
			return
		}
		if err != nil {
			slog.Error("failed to reserve generation", "email", acc.Email, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to check usage")
			return
		}
	}

	result := g.client.Generate(ctx, models.ContentRequest{Type: contentType, Business: profile})
	g.record(ctx, rec, result, limited)
	requestID := rec.RequestID

	resp := generateResponse{GenerationResult: result, RequestID: requestID}
	if limited {
		resp.RemainingGenerations = g.remaining(ctx, acc)
	}

	w.Header().Set("X-Request-ID", requestID)
	if !result.Success {
		slog.Warn("generation failed", "request_id", requestID, "type", contentType, "error", result.Error)
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	slog.Info("generation succeeded",
		"request_id", requestID,
		"type", contentType,
		"provider", result.ProviderKey,
		"attempts", len(result.Attempts),
	)
	writeJSON(w, http.StatusOK, resp)
}

// enrich fills profile from its website when an inspector is configured.
// Failures are logged and the profile is returned unchanged.
func (g *Generator) enrich(ctx context.Context, profile models.BusinessProfile) models.BusinessProfile {
	if g.inspector == nil || strings.TrimSpace(profile.Website) == "" {
		return profile
	}

	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	snap, err := g.inspector.Inspect(ctx, profile.Website)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, site.ErrInvalidURL) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "website enrichment skipped", "website", profile.Website, "error", err)
		return profile
	}
	return site.Enrich(profile, snap)
}

// record stores the outcome on rec. A reserved row is completed, which
// frees its slot when the chain failed. Storage failures are logged, not
// surfaced, since the caller already has the result.
func (g *Generator) record(ctx context.Context, rec *models.GenerationRecord, result models.GenerationResult, reserved bool) {
	attempts, err := json.Marshal(result.Attempts)
	if err != nil {
		attempts = []byte("[]")
	}
	rec.Provider = result.ProviderKey
	rec.Success = result.Success
	rec.Content = result.Content
	rec.Error = result.Error
	rec.AttemptsJSON = string(attempts)

	ctx = context.WithoutCancel(ctx)
	if reserved {
		err = g.store.CompleteGeneration(ctx, rec)
	} else {
		_, err = g.store.RecordGeneration(ctx, rec)
	}
	if err != nil {
		slog.Error("failed to record generation", "request_id", rec.RequestID, "error", err)
	}
}

// remaining returns the caller's allowance left after this request, or nil
// when usage cannot be read.
func (g *Generator) remaining(ctx context.Context, acc access.Access) *int {
	used, err := g.store.CountSuccessfulGenerations(context.WithoutCancel(ctx), acc.Email)
	if err != nil {
		slog.Error("failed to count generations", "email", acc.Email, "error", err)
		return nil
	}
	return g.policy.Subscription(acc, used).RemainingGenerations
}
