// Package server provides a public API for embedding the s1meta HTTP service.
package server

import (
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/s1meta/internal/api"
	"github.com/robert-malhotra/s1meta/internal/backend"
	"github.com/robert-malhotra/s1meta/internal/config"
	"github.com/robert-malhotra/s1meta/internal/metadata"
)

// Options configures the s1meta server.
type Options struct {
	// BaseURL is the public-facing URL for self-referential links (required).
	// Example: "https://api.example.com/s1" or "http://localhost:8080"
	BaseURL string

	// CatalogDir is the path to product definition JSON files (required
	// unless Products is set).
	CatalogDir string

	// Products are served in addition to CatalogDir.
	Products []*config.ProductEntry

	// Providers serve product metadata by product id instead of the
	// bundle stored with the product.
	Providers map[string]metadata.Provider

	// Title is the landing page title.
	// Default: "Sentinel-1 product geometry"
	Title string

	// Description is the landing page description.
	Description string

	// EnableMetrics serves Prometheus metrics on /metrics.
	EnableMetrics bool

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is an s1meta server that can be embedded in another application.
type Server struct {
	router  chi.Router
	catalog *config.Catalog
}

// New creates a new server with the given options.
func New(opts Options) (*Server, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if opts.Title == "" {
		opts.Title = "Sentinel-1 product geometry"
	}
	if opts.Description == "" {
		opts.Description = "Geolocation, bursts and footprints of Sentinel-1 SAFE products"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			Dir: opts.CatalogDir,
		},
		STAC: config.STACConfig{
			Version:     "1.0.0",
			BaseURL:     opts.BaseURL,
			Title:       opts.Title,
			Description: opts.Description,
		},
		Metrics: config.MetricsConfig{
			Enabled: opts.EnableMetrics,
			Path:    "/metrics",
		},
	}

	catalog := config.NewCatalog()
	if opts.CatalogDir != "" {
		loaded, err := config.LoadCatalog(opts.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = loaded
	}
	for _, p := range opts.Products {
		if err := catalog.Add(p); err != nil {
			return nil, err
		}
	}
	if catalog.Count() == 0 {
		return nil, fmt.Errorf("no products to serve")
	}

	backendOpts := []backend.Option{backend.WithLogger(opts.Logger)}
	for id, p := range opts.Providers {
		backendOpts = append(backendOpts, backend.WithProvider(id, p))
	}
	products := backend.NewCatalogBackend(catalog, backendOpts...)

	handlers := api.NewHandlers(cfg, products, opts.Logger)
	router := api.NewRouter(handlers, opts.Logger)

	return &Server{
		router:  router,
		catalog: catalog,
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// ProductIDs returns the served product ids.
func (s *Server) ProductIDs() []string {
	return s.catalog.IDs()
}
