package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/satishskid/gbseo/internal/auth"
	"github.com/satishskid/gbseo/internal/storage"
)

// GetGenerations handles GET /api/generations?limit=N. It returns the
// caller's most recent generations, newest first.
func GetGenerations(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email := auth.EmailFromContext(ctx)
		if email == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		limit, err := parseLimit(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		records, err := store.GetRecentGenerations(ctx, email, limit)
		if err != nil {
			slog.Error("failed to get generations", "email", email, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get generations")
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

// GetGeneration handles GET /api/generations/{requestID}. Callers only see
// their own records.
func GetGeneration(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email := auth.EmailFromContext(ctx)
		if email == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		rec, err := store.GetGenerationByRequestID(ctx, chi.URLParam(r, "requestID"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Generation not found")
				return
			}
			slog.Error("failed to get generation", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get generation")
			return
		}
		if !strings.EqualFold(rec.UserEmail, email) {
			writeError(w, http.StatusNotFound, "Generation not found")
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}
