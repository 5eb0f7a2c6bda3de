// s1meta server entry point
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robert-malhotra/s1meta/internal/api"
	"github.com/robert-malhotra/s1meta/internal/backend"
	"github.com/robert-malhotra/s1meta/internal/config"
	"github.com/robert-malhotra/s1meta/internal/mask"
	"github.com/robert-malhotra/s1meta/internal/product"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting s1meta",
		"stac_version", cfg.STAC.Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Default masks apply to every product opened from now on
	for name, path := range cfg.Masks.Defaults {
		if err := mask.RegisterDefault(name, mask.FromPath(path)); err != nil {
			return fmt.Errorf("failed to register default mask: %w", err)
		}
		logger.Info("registered default mask", "name", name, "path", path)
	}

	for name, resource := range cfg.Rasters.Defaults {
		if err := product.RegisterDefaultRaster(name, product.Raster{Resource: resource}); err != nil {
			return fmt.Errorf("failed to register default raster: %w", err)
		}
		logger.Info("registered default raster", "name", name, "resource", resource)
	}

	catalog, err := config.LoadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("loaded catalog", "dir", cfg.Catalog.Dir, "count", catalog.Count())

	products := backend.NewCatalogBackend(catalog, backend.WithLogger(logger))
	if cfg.Catalog.Preload {
		preload(context.Background(), products, logger)
	}
	handlers := api.NewHandlers(cfg, products, logger)
	router := api.NewRouter(handlers, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// preload opens every product once. Failures are logged and retried on the
// first request.
func preload(ctx context.Context, products backend.ProductBackend, logger *slog.Logger) {
	start := time.Now()
	failed := 0
	for _, id := range products.IDs() {
		err := products.With(ctx, id, func(m *product.Meta) error {
			_, err := m.Footprint()
			return err
		})
		if err != nil {
			failed++
			logger.Warn("preload failed", "product", id, "error", err)
		}
	}
	logger.Info("catalog preloaded", "count", len(products.IDs()), "failed", failed, "duration", time.Since(start))
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
