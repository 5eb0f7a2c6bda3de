package mask

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	gj "github.com/paulmach/go.geojson"

	"github.com/robert-malhotra/s1meta/pkg/geojson"
)

// Source defines a mask: either an in-memory Feature or the path of a vector
// file (.shp, .geojson or .json).
type Source struct {
	Feature *Feature
	Path    string
}

// FromFeature returns a source backed by an in-memory feature.
func FromFeature(f *Feature) Source {
	return Source{Feature: f}
}

// FromPath returns a source backed by a vector file.
func FromPath(path string) Source {
	return Source{Path: path}
}

var vectorExtensions = map[string]bool{
	".shp":     true,
	".geojson": true,
	".json":    true,
}

// Validate checks that the source is a feature or a readable vector file.
func (s Source) Validate() error {
	switch {
	case s.Feature != nil && s.Path != "":
		return fmt.Errorf("%w: both a feature and a path are set", ErrInvalidMaskDefinition)
	case s.Feature != nil:
		return nil
	case s.Path == "":
		return fmt.Errorf("%w: neither a feature nor a path is set", ErrInvalidMaskDefinition)
	}

	ext := strings.ToLower(filepath.Ext(s.Path))
	if !vectorExtensions[ext] {
		return fmt.Errorf("%w: unsupported vector file type %q", ErrInvalidMaskDefinition, ext)
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMaskDefinition, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidMaskDefinition, s.Path)
	}
	return nil
}

// Describe returns a human readable description of the source.
func (s Source) Describe() string {
	if s.Feature != nil {
		return "mask.Feature " + s.Feature.Name()
	}
	return s.Path
}

type sourceJSON struct {
	Path    string          `json:"path,omitempty"`
	Name    string          `json:"name,omitempty"`
	Feature json.RawMessage `json:"feature,omitempty"`
}

// MarshalJSON encodes a path source as {"path": ...} and a feature source
// as {"name": ..., "feature": <GeoJSON FeatureCollection>}.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.Feature == nil {
		return json.Marshal(sourceJSON{Path: s.Path})
	}
	fc := gj.NewFeatureCollection()
	for _, p := range s.Feature.Geometries() {
		fc.AddFeature(gj.NewFeature(geojson.FromPolygonal(p)))
	}
	raw, err := fc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(sourceJSON{Name: s.Feature.Name(), Feature: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Source) UnmarshalJSON(data []byte) error {
	var v sourceJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v.Feature) == 0 {
		*s = Source{Path: v.Path}
		return nil
	}
	fc, err := gj.UnmarshalFeatureCollection(v.Feature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMaskDefinition, err)
	}
	polys, err := fromFeatureCollection(fc)
	if err != nil {
		return err
	}
	*s = Source{Feature: NewFeature(v.Name, polys...)}
	return nil
}

// fromFeatureCollection keeps the polygonal geometries of fc.
func fromFeatureCollection(fc *gj.FeatureCollection) ([]geom.Polygonal, error) {
	var out []geom.Polygonal
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		p, err := geojson.ToPolygonal(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%w: mask shapes need to be polygons: %v", ErrInvalidMaskDefinition, err)
		}
		out = append(out, p)
	}
	return out, nil
}
