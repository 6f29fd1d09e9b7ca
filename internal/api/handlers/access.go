package handlers

import (
	"log/slog"
	"net/http"

	"github.com/satishskid/gbseo/internal/access"
	"github.com/satishskid/gbseo/internal/auth"
	"github.com/satishskid/gbseo/internal/storage"
)

// GetAccess handles GET /api/access. It returns the caller's entitlement
// and, when signed in, their subscription view.
func GetAccess(store *storage.Store, policy *access.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		acc := policy.Resolve(auth.EmailFromContext(ctx))
		resp := struct {
			Access       access.Access        `json:"access"`
			Subscription *access.Subscription `json:"subscription"`
		}{Access: acc}

		if acc.Level != access.LevelNone {
			used := 0
			if !acc.IsInternalTeam {
				n, err := store.CountSuccessfulGenerations(ctx, acc.Email)
				if err != nil {
					slog.Error("failed to count generations", "email", acc.Email, "error", err)
					writeError(w, http.StatusInternalServerError, "Failed to check usage")
					return
				}
				used = n
			}
			sub := policy.Subscription(acc, used)
			resp.Subscription = &sub
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
