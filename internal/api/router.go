package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/satishskid/gbseo/internal/access"
	"github.com/satishskid/gbseo/internal/ai"
	"github.com/satishskid/gbseo/internal/api/handlers"
	"github.com/satishskid/gbseo/internal/auth"
	"github.com/satishskid/gbseo/internal/site"
	"github.com/satishskid/gbseo/internal/storage"
)

// Deps holds everything the router wires into handlers. Inspector may be
// nil to disable website enrichment.
type Deps struct {
	Client        *ai.Client
	Store         *storage.Store
	Policy        *access.Policy
	Authenticator *auth.Authenticator
	Inspector     *site.Inspector
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// The authenticator never rejects, so it runs first for every route and
	// the request log can name the caller. Handlers that need an identity
	// return 401 themselves.
	r.Use(d.Authenticator.Middleware)
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	gen := handlers.NewGenerator(d.Client, d.Store, d.Policy, d.Inspector)

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handlers.Health())
		api.Get("/providers", handlers.ListProviders(d.Client))

		api.Post("/generate", gen.Generate())
		api.Post("/generate/{type}", gen.GenerateType())

		api.Get("/access", handlers.GetAccess(d.Store, d.Policy))
		api.Get("/generations", handlers.GetGenerations(d.Store))
		api.Get("/generations/{requestID}", handlers.GetGeneration(d.Store))
	})

	return r
}
