package mask

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// Feature is a named in-memory set of lon/lat polygons, indexed by bounds.
type Feature struct {
	name  string
	polys []geom.Polygonal
	tree  *rtree.Rtree
}

// NewFeature builds a feature from polygons.
func NewFeature(name string, polys ...geom.Polygonal) *Feature {
	f := &Feature{name: name, tree: rtree.NewTree(25, 50)}
	for _, p := range polys {
		if p == nil {
			continue
		}
		f.polys = append(f.polys, p)
		f.tree.Insert(p)
	}
	return f
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return f.name
}

// Len returns the number of polygons held.
func (f *Feature) Len() int {
	return len(f.polys)
}

// Geometries returns every polygon of the feature.
func (f *Feature) Geometries() []geom.Polygonal {
	return f.polys
}

// IntersectingGeometries returns the polygons whose bounds overlap b.
func (f *Feature) IntersectingGeometries(b *geom.Bounds) []geom.Polygonal {
	hits := f.tree.SearchIntersect(b)
	out := make([]geom.Polygonal, 0, len(hits))
	for _, h := range hits {
		if p, ok := h.(geom.Polygonal); ok {
			out = append(out, p)
		}
	}
	return out
}
