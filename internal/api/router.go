package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/robert-malhotra/s1meta/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(h *Handlers, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Add middleware stack
	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse) // Add X-Request-ID to response headers
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	if h.cfg.Metrics.Enabled {
		r.Use(metrics.Middleware)
	}
	r.Use(middleware.Compress(5)) // Gzip compression
	r.Use(ContentTypeJSON)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", h.Health)
	if h.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, h.cfg.Metrics.Path, metrics.Handler())
	}

	r.Get("/", h.LandingPage)
	r.Get("/conformance", h.Conformance)

	r.Get("/products", h.Products)
	r.Get("/items", h.Items)
	r.Route("/products/{productId}", func(r chi.Router) {
		r.Get("/", h.Product)
		r.Get("/footprint", h.Footprint)
		r.Get("/stac", h.Item)

		// Geolocation
		r.Get("/coords2ll", h.CoordsToLL)
		r.Get("/ll2coords", h.LLToCoords)
		r.Get("/heading", h.Heading)

		r.Get("/bursts", h.Bursts)

		r.Get("/masks", h.Masks)
		r.Get("/masks/{maskName}", h.Mask)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	// 405 handler
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}
