package product

import (
	"fmt"
	"sort"
	"sync"
)

// Raster is an external raster resource, such as a DEM, attached to a
// product. Reader names the function that loads the resource and Getter the
// one that extracts the product area from it. Both are resolved by the
// consumer of the definition.
type Raster struct {
	Resource string `json:"resource"`
	Reader   string `json:"reader,omitempty"`
	Getter   string `json:"getter,omitempty"`
}

var (
	rastersMu      sync.RWMutex
	defaultRasters = make(map[string]Raster)
)

// RegisterDefaultRaster adds a process-wide raster definition. Products
// copy the defaults when they are opened.
func RegisterDefaultRaster(name string, r Raster) error {
	r, err := completeRaster(name, r)
	if err != nil {
		return err
	}
	rastersMu.Lock()
	defaultRasters[name] = r
	rastersMu.Unlock()
	return nil
}

// UnregisterDefaultRaster removes a process-wide raster definition.
func UnregisterDefaultRaster(name string) {
	rastersMu.Lock()
	delete(defaultRasters, name)
	rastersMu.Unlock()
}

// DefaultRasters returns a copy of the process-wide raster definitions.
func DefaultRasters() map[string]Raster {
	rastersMu.RLock()
	defer rastersMu.RUnlock()
	return copyRasters(defaultRasters)
}

// completeRaster fills the empty fields of r from the default of the same
// name, if any.
func completeRaster(name string, r Raster) (Raster, error) {
	if name == "" {
		return Raster{}, fmt.Errorf("%w: empty raster name", ErrInvalidRaster)
	}
	rastersMu.RLock()
	def, ok := defaultRasters[name]
	rastersMu.RUnlock()
	if ok {
		if r.Resource == "" {
			r.Resource = def.Resource
		}
		if r.Reader == "" {
			r.Reader = def.Reader
		}
		if r.Getter == "" {
			r.Getter = def.Getter
		}
	}
	if r.Resource == "" {
		return Raster{}, fmt.Errorf("%w: raster %q has no resource", ErrInvalidRaster, name)
	}
	return r, nil
}

func copyRasters(in map[string]Raster) map[string]Raster {
	out := make(map[string]Raster, len(in))
	for name, r := range in {
		out[name] = r
	}
	return out
}

// SetRaster defines a raster for this Meta only. Empty fields of r take
// the value of the default raster of the same name.
func (m *Meta) SetRaster(name string, r Raster) error {
	r, err := completeRaster(name, r)
	if err != nil {
		return err
	}
	m.rasters[name] = r
	return nil
}

// Rasters returns a copy of the raster definitions of m.
func (m *Meta) Rasters() map[string]Raster {
	return copyRasters(m.rasters)
}

// RasterNames returns the defined raster names, sorted.
func (m *Meta) RasterNames() []string {
	names := make([]string, 0, len(m.rasters))
	for name := range m.rasters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
