package geojson

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/wkt"
)

// ToWKT encodes p as a WKT POLYGON when it is a single simple polygon, and
// as a MULTIPOLYGON otherwise. Rings are closed.
func ToWKT(p geom.Polygonal) string {
	parts := Split(p)
	if len(parts) == 0 {
		return "MULTIPOLYGON EMPTY"
	}
	for _, poly := range parts {
		for i, r := range poly {
			poly[i] = closed(r)
		}
	}

	var g geom.Geom = geom.MultiPolygon(parts)
	if len(parts) == 1 {
		g = parts[0]
	}
	// Polygon and MultiPolygon are always supported by the encoder.
	b, _ := wkt.Encode(g)
	return string(b)
}
