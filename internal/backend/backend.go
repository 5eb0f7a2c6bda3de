// Package backend serves the opened products of a catalog to the HTTP layer.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/robert-malhotra/s1meta/internal/config"
	"github.com/robert-malhotra/s1meta/internal/mask"
	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/product"
)

// ErrProductNotFound is returned for ids missing from the catalog.
var ErrProductNotFound = errors.New("product not found")

// ProductBackend defines how handlers reach products.
type ProductBackend interface {
	// IDs returns the served product ids, sorted.
	IDs() []string

	// Entry returns the catalog entry of a product.
	Entry(id string) (*config.ProductEntry, error)

	// With runs fn with exclusive access to the opened product.
	With(ctx context.Context, id string, fn func(*product.Meta) error) error

	// Name returns the backend name.
	Name() string
}

// slot serialises access to one product. A product.Meta memoises lazily
// and is not safe for concurrent use.
type slot struct {
	mu    sync.Mutex
	entry *config.ProductEntry
	meta  *product.Meta
}

// CatalogBackend opens catalog products on first use and keeps them for
// the lifetime of the process.
type CatalogBackend struct {
	slots     map[string]*slot
	ids       []string
	providers map[string]metadata.Provider
	logger    *slog.Logger
}

// Option configures a CatalogBackend.
type Option func(*CatalogBackend)

// WithLogger sets the logger handed to opened products.
func WithLogger(l *slog.Logger) Option {
	return func(b *CatalogBackend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithProvider serves the product id from p instead of its bundle.
func WithProvider(id string, p metadata.Provider) Option {
	return func(b *CatalogBackend) {
		b.providers[id] = p
	}
}

// NewCatalogBackend creates a backend over every entry of the catalog.
func NewCatalogBackend(catalog *config.Catalog, opts ...Option) *CatalogBackend {
	b := &CatalogBackend{
		slots:     make(map[string]*slot),
		providers: make(map[string]metadata.Provider),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, entry := range catalog.All() {
		b.slots[entry.ID] = &slot{entry: entry}
		b.ids = append(b.ids, entry.ID)
	}
	return b
}

// Name returns the backend name.
func (b *CatalogBackend) Name() string {
	return "catalog"
}

// IDs returns the served product ids, sorted.
func (b *CatalogBackend) IDs() []string {
	return append([]string(nil), b.ids...)
}

// Entry returns the catalog entry of a product.
func (b *CatalogBackend) Entry(id string) (*config.ProductEntry, error) {
	s, ok := b.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return s.entry, nil
}

// With runs fn while holding the product lock, opening the product first
// if needed. A failed open is retried on the next call.
func (b *CatalogBackend) With(ctx context.Context, id string, fn func(*product.Meta) error) error {
	s, ok := b.slots[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta == nil {
		m, err := b.open(s.entry)
		if err != nil {
			return err
		}
		s.meta = m
	}
	return fn(s.meta)
}

func (b *CatalogBackend) open(entry *config.ProductEntry) (*product.Meta, error) {
	logger := b.logger.With("product", entry.ID)
	opts := []product.Option{product.WithLogger(logger)}

	if p, ok := b.providers[entry.ID]; ok {
		opts = append(opts, product.WithProvider(p))
	} else if entry.Bundle != "" {
		bundle, err := metadata.LoadBundle(entry.Bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to load bundle of %s: %w", entry.ID, err)
		}
		opts = append(opts, product.WithProvider(bundle))
	}

	m, err := product.Open(entry.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", entry.ID, err)
	}

	for name, path := range entry.Masks {
		if err := m.SetMask(name, mask.FromPath(path)); err != nil {
			return nil, fmt.Errorf("failed to set mask %s of %s: %w", name, entry.ID, err)
		}
	}

	for name, r := range entry.Rasters {
		if err := m.SetRaster(name, product.Raster(r)); err != nil {
			return nil, fmt.Errorf("failed to set raster %s of %s: %w", name, entry.ID, err)
		}
	}

	logger.Info("product opened", "name", m.Name(), "multidataset", m.IsMultidataset())
	return m, nil
}
