package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ProductEntry is one served product. Entries are loaded from JSON files
// in the catalog directory.
type ProductEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Name is a SAFE directory path or a SENTINEL1_DS:<path>:<dsid> dataset name.
	Name string `json:"name"`

	// Bundle overrides the metadata bundle location; by default the bundle
	// is read from the SAFE directory.
	Bundle string `json:"bundle,omitempty"`

	// Masks maps product specific mask names to vector files.
	Masks map[string]string `json:"masks,omitempty"`

	// Rasters maps raster names to external resources. Empty fields take
	// the process-wide default of the same name.
	Rasters map[string]RasterEntry `json:"rasters,omitempty"`
}

// RasterEntry is a raster resource attached to a product.
type RasterEntry struct {
	Resource string `json:"resource,omitempty"`
	Reader   string `json:"reader,omitempty"`
	Getter   string `json:"getter,omitempty"`
}

// Catalog holds all loaded product entries indexed by ID.
type Catalog struct {
	products map[string]*ProductEntry
}

// NewCatalog creates a new empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		products: make(map[string]*ProductEntry),
	}
}

// LoadCatalog loads product entries from JSON files in the specified directory.
// A file holds either one entry or an array of entries.
// Only files with a .json extension are processed.
func LoadCatalog(dir string) (*Catalog, error) {
	catalog := NewCatalog()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access catalog directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(strings.ToLower(filename), ".json") {
			continue
		}

		filePath := filepath.Join(dir, filename)
		products, err := loadCatalogFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load products from %q: %w", filePath, err)
		}

		for _, p := range products {
			if err := catalog.Add(p); err != nil {
				return nil, fmt.Errorf("failed to add product from %q: %w", filePath, err)
			}
		}
	}

	if catalog.Count() == 0 {
		return nil, fmt.Errorf("no product files found in %q", dir)
	}

	return catalog, nil
}

// loadCatalogFile loads the product entries of a single JSON file.
func loadCatalogFile(filePath string) ([]*ProductEntry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var products []*ProductEntry
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	} else {
		var p ProductEntry
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		products = append(products, &p)
	}

	for _, p := range products {
		if err := validateProduct(p); err != nil {
			return nil, fmt.Errorf("invalid product configuration: %w", err)
		}
	}

	return products, nil
}

// validateProduct checks that a product entry is valid.
func validateProduct(p *ProductEntry) error {
	if p.ID == "" {
		return fmt.Errorf("product ID is required")
	}

	if strings.ContainsAny(p.ID, "/ ") {
		return fmt.Errorf("product ID %q must not contain slashes or spaces", p.ID)
	}

	if p.Name == "" {
		return fmt.Errorf("product %q must name a SAFE directory or dataset", p.ID)
	}

	for name, path := range p.Masks {
		if path == "" {
			return fmt.Errorf("mask %q of product %q has no path", name, p.ID)
		}
	}

	return nil
}

// Add registers a product in the catalog.
// Returns an error if a product with the same ID already exists.
func (c *Catalog) Add(p *ProductEntry) error {
	if p == nil {
		return fmt.Errorf("cannot add nil product")
	}

	if _, exists := c.products[p.ID]; exists {
		return fmt.Errorf("product with ID %q already exists", p.ID)
	}

	c.products[p.ID] = p
	return nil
}

// Get retrieves a product by ID.
// Returns nil if the product does not exist.
func (c *Catalog) Get(id string) *ProductEntry {
	return c.products[id]
}

// Has checks if a product with the given ID exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, exists := c.products[id]
	return exists
}

// All returns all products in the catalog, ordered by ID.
func (c *Catalog) All() []*ProductEntry {
	products := make([]*ProductEntry, 0, len(c.products))
	for _, id := range c.IDs() {
		products = append(products, c.products[id])
	}
	return products
}

// IDs returns all product IDs in the catalog, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of products in the catalog.
func (c *Catalog) Count() int {
	return len(c.products)
}
