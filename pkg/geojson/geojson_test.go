package geojson

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	gj "github.com/paulmach/go.geojson"
)

func box(x0, y0, x1, y1 float64) geom.Path {
	return geom.Path{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

func TestSplit(t *testing.T) {
	// Two outer rings, the first one with a hole, as returned by a union.
	p := geom.Polygon{box(0, 0, 4, 4), box(10, 0, 11, 1), box(1, 1, 2, 2)}

	parts := Split(p)
	if len(parts) != 2 {
		t.Fatalf("Split() returned %d polygons, want 2", len(parts))
	}
	if len(parts[0]) != 2 {
		t.Errorf("first polygon has %d rings, want 2 (outer + hole)", len(parts[0]))
	}
	if len(parts[1]) != 1 {
		t.Errorf("second polygon has %d rings, want 1", len(parts[1]))
	}

	var area float64
	for _, poly := range parts {
		area += poly.Area()
	}
	if math.Abs(area-(16-1+1)) > 1e-9 {
		t.Errorf("total area = %f, want 16", area)
	}
}

func TestSplitNestedIsland(t *testing.T) {
	// An island inside a hole is an outer ring of its own.
	p := geom.Polygon{box(0, 0, 10, 10), box(2, 2, 8, 8), box(4, 4, 5, 5)}
	parts := Split(p)
	if len(parts) != 2 {
		t.Fatalf("Split() returned %d polygons, want 2", len(parts))
	}
	if len(parts[0]) != 2 || len(parts[1]) != 1 {
		t.Errorf("unexpected ring counts: %d, %d", len(parts[0]), len(parts[1]))
	}
}

func TestFromPolygonal(t *testing.T) {
	tests := []struct {
		name     string
		input    geom.Polygonal
		wantType gj.GeometryType
		wantLen  int
	}{
		{"single polygon", geom.Polygon{box(0, 0, 1, 1)}, gj.GeometryPolygon, 1},
		{"disjoint rings", geom.Polygon{box(0, 0, 1, 1), box(5, 5, 6, 6)}, gj.GeometryMultiPolygon, 2},
		{"multipolygon", geom.MultiPolygon{{box(0, 0, 1, 1)}, {box(5, 5, 6, 6)}}, gj.GeometryMultiPolygon, 2},
		{"empty", geom.Polygon{}, gj.GeometryMultiPolygon, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := FromPolygonal(tt.input)
			if g.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", g.Type, tt.wantType)
			}
			n := 1
			if g.Type == gj.GeometryMultiPolygon {
				n = len(g.MultiPolygon)
			}
			if n != tt.wantLen {
				t.Errorf("got %d polygons, want %d", n, tt.wantLen)
			}
		})
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	p := geom.Polygon{box(10, 45, 12, 46), box(20, 45, 21, 46)}

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(data), `"MultiPolygon"`) {
		t.Errorf("expected a MultiPolygon, got %s", data)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	var area float64
	for _, poly := range back.Polygons() {
		area += poly.Area()
	}
	if math.Abs(area-3) > 1e-9 {
		t.Errorf("area = %f, want 3", area)
	}
}

func TestUnmarshalRejectsPoints(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type": "Point", "coordinates": [1, 2]}`))
	if err == nil {
		t.Error("Unmarshal() should reject a Point")
	}
	_, err = Unmarshal([]byte(`not json`))
	if err == nil {
		t.Error("Unmarshal() should reject invalid JSON")
	}
}

func TestNewFeature(t *testing.T) {
	f := NewFeature(geom.Polygon{box(10, 45, 12, 46)}, map[string]any{"name": "footprint"})

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	props := decoded["properties"].(map[string]any)
	if props["name"] != "footprint" {
		t.Errorf("name = %v, want footprint", props["name"])
	}
	bbox := decoded["bbox"].([]any)
	if len(bbox) != 4 || bbox[0].(float64) != 10 || bbox[3].(float64) != 46 {
		t.Errorf("bbox = %v, want [10 45 12 46]", bbox)
	}
}

func TestBBox(t *testing.T) {
	got := BBox(geom.MultiPolygon{{box(0, 0, 1, 1)}, {box(5, -2, 6, 3)}})
	want := []float64{0, -2, 6, 3}
	if len(got) != 4 {
		t.Fatalf("BBox() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("BBox()[%d] = %f, want %f", i, got[i], want[i])
		}
	}

	if BBox(geom.Polygon{}) != nil {
		t.Error("BBox() of an empty polygon should be nil")
	}
}

func TestNewPolygonFromBBox(t *testing.T) {
	p, err := NewPolygonFromBBox([]float64{-10, -5, 10, 5})
	if err != nil {
		t.Fatalf("NewPolygonFromBBox() error: %v", err)
	}
	if p.Area() != 200 {
		t.Errorf("Area() = %f, want 200", p.Area())
	}

	if _, err := NewPolygonFromBBox([]float64{1, 2, 3}); err == nil {
		t.Error("NewPolygonFromBBox() should reject 3 values")
	}
}

func TestToWKT(t *testing.T) {
	tests := []struct {
		name  string
		input geom.Polygonal
		want  string
	}{
		{
			name:  "polygon",
			input: geom.Polygon{box(0, 0, 1, 1)},
			want:  "POLYGON((0 0,1 0,1 1,0 1,0 0))",
		},
		{
			name:  "open ring is closed",
			input: geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
			want:  "POLYGON((0 0,1 0,1 1,0 0))",
		},
		{
			name:  "disjoint rings",
			input: geom.Polygon{box(0, 0, 1, 1), box(2.5, 0, 3, 1)},
			want:  "MULTIPOLYGON(((0 0,1 0,1 1,0 1,0 0)),((2.5 0,3 0,3 1,2.5 1,2.5 0)))",
		},
		{
			name:  "empty",
			input: geom.Polygon{},
			want:  "MULTIPOLYGON EMPTY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToWKT(tt.input); got != tt.want {
				t.Errorf("ToWKT() = %q, want %q", got, tt.want)
			}
		})
	}
}
