package product

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/robert-malhotra/s1meta/internal/mask"
)

// Descriptor is the serializable form of a Meta: its identity with its mask
// and raster definitions. The cache slots exist so that a descriptor built from a
// resolved instance is detected; they are always empty in a valid
// descriptor.
type Descriptor struct {
	Name    string                 `json:"name"`
	Masks   map[string]mask.Source `json:"masks"`
	Rasters map[string]Raster      `json:"rasters,omitempty"`

	MaskFeatures     map[string]json.RawMessage `json:"mask_features"`
	MaskIntersecting map[string]json.RawMessage `json:"mask_intersecting_geometries"`
	MaskGeometry     map[string]json.RawMessage `json:"mask_geometry"`
}

// Descriptor returns the descriptor of m. It fails with ErrResolvedCache
// once any mask of m has been resolved.
func (m *Meta) Descriptor() (Descriptor, error) {
	if m.masks.Resolved() {
		return Descriptor{}, fmt.Errorf("%s: %w", m.id.ShortName(), ErrResolvedCache)
	}
	return Descriptor{
		Name:    m.id.Name(),
		Masks:   m.masks.Definitions(),
		Rasters: m.Rasters(),
	}, nil
}

// FromDescriptor reopens a product from its descriptor. The mask and
// raster definitions of d replace the defaults.
func FromDescriptor(d Descriptor, opts ...Option) (*Meta, error) {
	if len(d.MaskFeatures) > 0 || len(d.MaskIntersecting) > 0 || len(d.MaskGeometry) > 0 {
		return nil, fmt.Errorf("%s: %w", d.Name, ErrResolvedCache)
	}
	m, err := Open(d.Name, opts...)
	if err != nil {
		return nil, err
	}

	m.masks = m.newMaskEngine(mask.WithoutDefaults())
	names := make([]string, 0, len(d.Masks))
	for name := range d.Masks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := m.masks.Set(name, d.Masks[name]); err != nil {
			return nil, err
		}
	}

	m.rasters = make(map[string]Raster, len(d.Rasters))
	for name, r := range d.Rasters {
		if err := m.SetRaster(name, r); err != nil {
			return nil, err
		}
	}
	return m, nil
}
