// Package config provides configuration management for the s1meta service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Catalog CatalogConfig `envPrefix:"CATALOG_"`
	Masks   MaskConfig    `envPrefix:"MASK_"`
	Rasters RasterConfig  `envPrefix:"RASTER_"`
	STAC    STACConfig    `envPrefix:"STAC_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// CatalogConfig locates the product catalog.
type CatalogConfig struct {
	// Dir holds one JSON file per served product (required)
	Dir     string `env:"DIR"`
	// Preload opens every product and computes its footprint at startup
	Preload bool   `env:"PRELOAD" envDefault:"false"`
}

// MaskConfig declares process wide default masks.
type MaskConfig struct {
	// Defaults maps mask names to vector files, e.g. "land=/masks/land.shp,ocean=/masks/ocean.geojson"
	Defaults map[string]string `env:"DEFAULTS" envDefault:"" envSeparator:"," envKeyValSeparator:"="`
}

// RasterConfig declares process wide default rasters.
type RasterConfig struct {
	// Defaults maps raster names to resources, e.g. "dem=/dem/srtm.vrt"
	Defaults map[string]string `env:"DEFAULTS" envDefault:"" envSeparator:"," envKeyValSeparator:"="`
}

// STACConfig contains STAC metadata configuration.
type STACConfig struct {
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	BaseURL     string `env:"BASE_URL"` // Public-facing URL (required)
	Title       string `env:"TITLE" envDefault:"Sentinel-1 product geometry"`
	Description string `env:"DESCRIPTION" envDefault:"Geolocation, bursts and footprints of Sentinel-1 SAFE products"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Catalog.Dir == "" {
		return fmt.Errorf("catalog directory is required")
	}

	for name, path := range c.Masks.Defaults {
		if name == "" || path == "" {
			return fmt.Errorf("default mask %q must have a name and a path", name+"="+path)
		}
	}

	for name, resource := range c.Rasters.Defaults {
		if name == "" || resource == "" {
			return fmt.Errorf("default raster %q must have a name and a resource", name+"="+resource)
		}
	}

	// Validate STAC config
	if c.STAC.BaseURL == "" {
		return fmt.Errorf("STAC base URL is required")
	}

	if c.STAC.Version == "" {
		return fmt.Errorf("STAC version is required")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got %q", c.Metrics.Path)
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
