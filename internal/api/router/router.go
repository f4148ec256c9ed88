package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/lead-extractor/internal/http/middleware"
	"github.com/wolfman30/lead-extractor/internal/leads"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	LeadsHandler   *leads.Handler
	MetricsHandler http.Handler
	StaticHandler  http.Handler
	// Origins gates browser access to the API; a zero policy disables CORS.
	Origins        httpmiddleware.OriginPolicy
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.SecurityHeaders)
	if cfg.Origins.Enabled() {
		r.Use(httpmiddleware.CORS(cfg.Origins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", cfg.LeadsHandler.HealthCheck)
		api.Post("/extract", cfg.LeadsHandler.Extract)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Everything else is the front-end.
	if cfg.StaticHandler != nil {
		r.Handle("/*", cfg.StaticHandler)
	}

	return r
}
