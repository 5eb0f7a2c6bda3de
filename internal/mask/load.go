package mask

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	gj "github.com/paulmach/go.geojson"
)

const longlatProj = "+proj=longlat +datum=WGS84 +no_defs"

// loadFile reads the polygons of a vector file that overlap footprint. The
// footprint is transformed into the file's native reference system for the
// overlap test, and only the kept geometries are transformed back to
// lon/lat.
func loadFile(name, path string, footprint geom.Polygonal) (*Feature, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return loadShapefile(name, path, footprint)
	case ".geojson", ".json":
		return loadGeoJSON(name, path, footprint)
	}
	return nil, fmt.Errorf("%w: unsupported vector file %s", ErrInvalidMaskDefinition, path)
}

func loadShapefile(name, path string, footprint geom.Polygonal) (*Feature, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaskDefinition, err)
	}
	defer dec.Close()

	fileSR, err := dec.SR()
	if err != nil {
		return nil, fmt.Errorf("failed to read reference system of %s: %w", path, err)
	}
	longlat, err := proj.Parse(longlatProj)
	if err != nil {
		return nil, err
	}
	toFile, err := longlat.NewTransform(fileSR)
	if err != nil {
		return nil, fmt.Errorf("failed to transform footprint to %s: %w", path, err)
	}
	toLongLat, err := fileSR.NewTransform(longlat)
	if err != nil {
		return nil, fmt.Errorf("failed to transform %s to lon/lat: %w", path, err)
	}

	fp, err := densePolygonFromBounds(footprint.Bounds()).Transform(toFile)
	if err != nil {
		return nil, fmt.Errorf("failed to transform footprint to %s: %w", path, err)
	}
	bounds := fp.Bounds()

	var kept []geom.Polygonal
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("%w: %s: mask shapes need to be polygons", ErrInvalidMaskDefinition, path)
		}
		if !bounds.Overlaps(p.Bounds()) {
			continue
		}
		gg, err := p.Transform(toLongLat)
		if err != nil {
			return nil, err
		}
		kept = append(kept, gg.(geom.Polygonal))
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewFeature(name, kept...), nil
}

// loadGeoJSON reads a GeoJSON file; coordinates are WGS84 lon/lat.
func loadGeoJSON(name, path string, footprint geom.Polygonal) (*Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaskDefinition, err)
	}
	fc, err := gj.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMaskDefinition, path, err)
	}
	polys, err := fromFeatureCollection(fc)
	if err != nil {
		return nil, err
	}

	bounds := footprint.Bounds()
	var kept []geom.Polygonal
	for _, p := range polys {
		if bounds.Overlaps(p.Bounds()) {
			kept = append(kept, p)
		}
	}
	return NewFeature(name, kept...), nil
}

// densePolygonFromBounds adds intermediate vertices along each side of b so
// that curved projections keep the shape of the box.
func densePolygonFromBounds(b *geom.Bounds) geom.Polygon {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	var ring geom.Path
	for i := 0; i < 4; i++ {
		ring = append(ring, geom.Point{X: b.Min.X + dx*float64(i)/4, Y: b.Min.Y})
	}
	for i := 0; i < 4; i++ {
		ring = append(ring, geom.Point{X: b.Max.X, Y: b.Min.Y + dy*float64(i)/4})
	}
	for i := 0; i < 4; i++ {
		ring = append(ring, geom.Point{X: b.Max.X - dx*float64(i)/4, Y: b.Max.Y})
	}
	for i := 0; i < 4; i++ {
		ring = append(ring, geom.Point{X: b.Min.X, Y: b.Max.Y - dy*float64(i)/4})
	}
	return geom.Polygon{append(ring, ring[0])}
}
