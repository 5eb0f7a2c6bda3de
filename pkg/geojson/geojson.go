// Package geojson converts between ctessum/geom polygons and their GeoJSON
// and WKT encodings.
//
// A geom.Polygon may hold several outer rings (the result of a union) as well
// as holes. Encoders split it into GeoJSON/WKT polygons by ring nesting: a
// ring inside an even number of other rings is an outer ring, the others are
// holes of the closest enclosing outer ring.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom"
	gj "github.com/paulmach/go.geojson"
)

// Split returns the polygonal geometry as simple polygons, each with one
// outer ring followed by its holes.
func Split(p geom.Polygonal) []geom.Polygon {
	var out []geom.Polygon
	for _, poly := range p.Polygons() {
		out = append(out, splitRings(poly)...)
	}
	return out
}

func splitRings(poly geom.Polygon) []geom.Polygon {
	rings := make([]geom.Path, 0, len(poly))
	for _, r := range poly {
		if len(r) >= 3 {
			rings = append(rings, r)
		}
	}
	depth := make([]int, len(rings))
	for i, r := range rings {
		for j, other := range rings {
			if i != j && inside(other, r[0]) {
				depth[i]++
			}
		}
	}

	var out []geom.Polygon
	outer := make(map[int]int)
	for i, r := range rings {
		if depth[i]%2 == 0 {
			outer[i] = len(out)
			out = append(out, geom.Polygon{r})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		for j, o := range rings {
			if depth[j] == depth[i]-1 && inside(o, r[0]) {
				k := outer[j]
				out[k] = append(out[k], r)
				break
			}
		}
	}
	return out
}

func inside(ring geom.Path, pt geom.Point) bool {
	return pt.Within(geom.Polygon{ring}) == geom.Inside
}

func closed(r geom.Path) geom.Path {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		return append(append(geom.Path(nil), r...), r[0])
	}
	return r
}

func ringCoordinates(r geom.Path) [][]float64 {
	r = closed(r)
	out := make([][]float64, len(r))
	for i, pt := range r {
		out[i] = []float64{pt.X, pt.Y}
	}
	return out
}

// FromPolygonal encodes p as a GeoJSON Polygon when it is a single simple
// polygon, and as a MultiPolygon otherwise. An empty geometry is an empty
// MultiPolygon.
func FromPolygonal(p geom.Polygonal) *gj.Geometry {
	parts := Split(p)
	coords := make([][][][]float64, len(parts))
	for i, poly := range parts {
		coords[i] = make([][][]float64, len(poly))
		for j, r := range poly {
			coords[i][j] = ringCoordinates(r)
		}
	}
	if len(coords) == 1 {
		return gj.NewPolygonGeometry(coords[0])
	}
	return gj.NewMultiPolygonGeometry(coords...)
}

// ToPolygonal decodes a GeoJSON Polygon or MultiPolygon.
func ToPolygonal(g *gj.Geometry) (geom.Polygonal, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}
	switch {
	case g.IsPolygon():
		return toPolygon(g.Polygon), nil
	case g.IsMultiPolygon():
		mp := make(geom.MultiPolygon, len(g.MultiPolygon))
		for i, rings := range g.MultiPolygon {
			mp[i] = toPolygon(rings)
		}
		return mp, nil
	}
	return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
}

func toPolygon(rings [][][]float64) geom.Polygon {
	poly := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		poly[i] = make(geom.Path, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			poly[i] = append(poly[i], geom.Point{X: c[0], Y: c[1]})
		}
	}
	return poly
}

// Marshal encodes p as a GeoJSON geometry document.
func Marshal(p geom.Polygonal) ([]byte, error) {
	return json.Marshal(FromPolygonal(p))
}

// Unmarshal decodes a GeoJSON Polygon or MultiPolygon document.
func Unmarshal(data []byte) (geom.Polygonal, error) {
	g, err := gj.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON geometry: %w", err)
	}
	return ToPolygonal(g)
}

// NewFeature returns a GeoJSON feature of p with the given properties.
func NewFeature(p geom.Polygonal, properties map[string]any) *gj.Feature {
	f := gj.NewFeature(FromPolygonal(p))
	for k, v := range properties {
		f.SetProperty(k, v)
	}
	if bbox := BBox(p); bbox != nil {
		f.BoundingBox = bbox
	}
	return f
}

// BBox returns [west, south, east, north], or nil for an empty geometry.
func BBox(p geom.Polygonal) []float64 {
	if p == nil || len(p.Polygons()) == 0 {
		return nil
	}
	empty := true
	for _, poly := range p.Polygons() {
		if len(poly) > 0 {
			empty = false
		}
	}
	if empty {
		return nil
	}
	b := p.Bounds()
	return []float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
}

// NewPolygonFromBBox returns the box polygon of [west, south, east, north].
func NewPolygonFromBBox(bbox []float64) (geom.Polygon, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(bbox))
	}
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	return geom.Polygon{{
		{X: west, Y: south},
		{X: east, Y: south},
		{X: east, Y: north},
		{X: west, Y: north},
		{X: west, Y: south},
	}}, nil
}
