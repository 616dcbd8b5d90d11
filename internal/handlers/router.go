package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aardel/launchpad/internal/config"
	"github.com/aardel/launchpad/internal/middleware"
)

// Dependencies holds all the dependencies needed for handlers.
type Dependencies struct {
	Config   *config.Config
	Store    ItemStore
	Vault    VaultControl
	Launcher Launcher
	Prober   Prober
	Logger   *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.LoopbackOnly())
	r.Use(middleware.Metrics())
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimiddleware.Timeout(deps.Config.Serve.RequestTimeout))
	r.Use(middleware.SecurityHeaders())

	r.NotFound(NotFoundHandler)
	r.MethodNotAllowed(MethodNotAllowedHandler)

	healthHandler := NewHealthHandler(deps.Store, deps.Vault)
	apiHandler := NewAPIHandler(deps.Store, deps.Vault, deps.Launcher, deps.Prober, deps.Config)

	r.Get("/health", healthHandler.Liveness)
	r.Get("/ready", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireJSON())

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", apiHandler.ListGroups)
			r.Get("/{id}/items", apiHandler.ListGroupItems)
			r.Post("/{id}/launch", apiHandler.LaunchGroup)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", apiHandler.ListItems)
			r.Get("/{id}", apiHandler.GetItem)
			r.Get("/{id}/resolve", apiHandler.ResolveItem)
			r.Post("/{id}/launch", apiHandler.LaunchItem)
		})

		r.Get("/access", apiHandler.ListAccess)

		r.Route("/vault", func(r chi.Router) {
			r.Get("/status", apiHandler.VaultStatus)
			r.Post("/unlock", apiHandler.UnlockVault)
			r.Post("/lock", apiHandler.LockVault)
		})
	})

	return r
}
