// Package geoloc models the geolocation grid of a SAR annotation document and
// the conversions between image coordinates (line, pixel) and geographic
// coordinates (longitude, latitude) derived from it.
package geoloc

import (
	"fmt"
	"time"

	"github.com/ctessum/geom"

	"github.com/robert-malhotra/s1meta/internal/metadata"
)

// Grid is a sparse geolocation grid. Matrices are indexed [line][pixel].
//
// Longitudes are stored as read. When the grid crosses the antemeridian
// (longitude span above 180 degrees) all derived computations run on
// longitudes wrapped to [0, 360), and results are wrapped back to
// [-180, 180).
type Grid struct {
	Lines  []float64
	Pixels []float64

	Longitude      [][]float64
	Latitude       [][]float64
	Altitude       [][]float64
	SlantRangeTime [][]float64
	Incidence      [][]float64
	Elevation      [][]float64
	AzimuthTime    [][]time.Time

	// History holds the provenance of each variable.
	History map[string]string

	cross     bool
	lon       [][]float64
	footprint geom.Polygon
	coverage  string
	approx    Affine
}

var floatVars = []string{
	metadata.VarLongitude,
	metadata.VarLatitude,
	metadata.VarAltitude,
	metadata.VarSlantRangeTime,
	metadata.VarIncidence,
	metadata.VarElevation,
}

// BuildGrid reads the geolocation variables of an annotation document and
// merges them into a Grid.
func BuildGrid(p metadata.Provider, doc string) (*Grid, error) {
	g := &Grid{History: make(map[string]string, len(floatVars)+1)}

	values := make(map[string][][]float64, len(floatVars))
	for _, name := range floatVars {
		v, err := metadata.Grid(p, doc, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := g.merge(name, v.Lines, v.Pixels); err != nil {
			return nil, err
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGrid, name, err)
		}
		values[name] = v.Values
		g.History[name] = describe(p, doc, name)
	}

	azt, err := metadata.TimeGrid(p, doc, metadata.VarAzimuthTime)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", metadata.VarAzimuthTime, err)
	}
	if err := g.merge(metadata.VarAzimuthTime, azt.Lines, azt.Pixels); err != nil {
		return nil, err
	}
	if err := azt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGrid, metadata.VarAzimuthTime, err)
	}
	g.History[metadata.VarAzimuthTime] = describe(p, doc, metadata.VarAzimuthTime)

	g.Longitude = values[metadata.VarLongitude]
	g.Latitude = values[metadata.VarLatitude]
	g.Altitude = values[metadata.VarAltitude]
	g.SlantRangeTime = values[metadata.VarSlantRangeTime]
	g.Incidence = values[metadata.VarIncidence]
	g.Elevation = values[metadata.VarElevation]
	g.AzimuthTime = azt.Values

	if err := g.derive(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGrid builds a grid from longitude and latitude samples only. The other
// variables are left empty.
func NewGrid(lines, pixels []float64, lon, lat [][]float64) (*Grid, error) {
	g := &Grid{History: map[string]string{}}
	if err := g.merge(metadata.VarLongitude, lines, pixels); err != nil {
		return nil, err
	}
	for name, v := range map[string][][]float64{metadata.VarLongitude: lon, metadata.VarLatitude: lat} {
		grid := metadata.Grid2D{Lines: lines, Pixels: pixels, Values: v}
		if err := grid.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGrid, name, err)
		}
	}
	g.Longitude = lon
	g.Latitude = lat
	if err := g.derive(); err != nil {
		return nil, err
	}
	return g, nil
}

func describe(p metadata.Provider, doc, name string) string {
	s, err := p.Describe(doc, name)
	if err != nil {
		return name
	}
	return s
}

// merge checks that a variable shares the grid axes, setting them on first use.
func (g *Grid) merge(name string, lines, pixels []float64) error {
	if g.Lines == nil {
		if err := increasing(lines); err != nil {
			return fmt.Errorf("%w: %s lines: %v", ErrInvalidGrid, name, err)
		}
		if err := increasing(pixels); err != nil {
			return fmt.Errorf("%w: %s pixels: %v", ErrInvalidGrid, name, err)
		}
		if len(lines) < 2 || len(pixels) < 2 {
			return fmt.Errorf("%w: %s has %dx%d samples", ErrInvalidGrid, name, len(lines), len(pixels))
		}
		g.Lines, g.Pixels = lines, pixels
		return nil
	}
	if !equal(g.Lines, lines) || !equal(g.Pixels, pixels) {
		return fmt.Errorf("%w: %s is not sampled on the shared line/pixel axes", ErrInvalidGrid, name)
	}
	return nil
}

func increasing(v []float64) error {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return fmt.Errorf("not strictly increasing at index %d", i)
		}
	}
	return nil
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// derive computes the cached attributes: antemeridian flag, footprint,
// coverage and approximate transform.
func (g *Grid) derive() error {
	lo, hi := g.Longitude[0][0], g.Longitude[0][0]
	for _, row := range g.Longitude {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	g.cross = hi-lo > 180

	g.lon = g.Longitude
	if g.cross {
		g.lon = make([][]float64, len(g.Longitude))
		for i, row := range g.Longitude {
			g.lon[i] = make([]float64, len(row))
			for j, v := range row {
				g.lon[i][j] = ToLon360(v)
			}
		}
	}

	nl, np := len(g.Lines)-1, len(g.Pixels)-1
	corners := [4][2]int{{0, 0}, {0, np}, {nl, np}, {nl, 0}}
	ring := make(geom.Path, 0, 5)
	for _, c := range corners {
		ring = append(ring, geom.Point{X: ToLon180(g.lon[c[0]][c[1]]), Y: g.Latitude[c[0]][c[1]]})
	}
	ring = append(ring, ring[0])
	g.footprint = geom.Polygon{ring}

	// First leg runs along pixels, second along lines.
	pixelM := Distance(ring[0].X, ring[0].Y, ring[1].X, ring[1].Y)
	lineM := Distance(ring[1].X, ring[1].Y, ring[2].X, ring[2].Y)
	g.coverage = fmt.Sprintf("%dkm * %dkm (line * pixel )", int(lineM/1000), int(pixelM/1000))

	n := len(g.Lines) * len(g.Pixels)
	ls := make([]float64, 0, n)
	ps := make([]float64, 0, n)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i, l := range g.Lines {
		for j, p := range g.Pixels {
			ls = append(ls, l)
			ps = append(ps, p)
			xs = append(xs, g.lon[i][j])
			ys = append(ys, g.Latitude[i][j])
		}
	}
	approx, err := FitAffine(ls, ps, xs, ys)
	if err != nil {
		return err
	}
	g.approx = approx
	return nil
}

// Footprint is the lon/lat polygon through the four grid corners, in the
// order (first line, first pixel), (first, last), (last, last), (last, first).
func (g *Grid) Footprint() geom.Polygon {
	return g.footprint
}

// Coverage is the approximate extent of the grid, in whole kilometers.
func (g *Grid) Coverage() string {
	return g.coverage
}

// ApproxTransform is an affine (line, pixel) -> (lon, lat) transform fitted
// over every grid sample. It is fast and spatially stable but may be off by
// several hundred meters; do not use it for precise geolocation.
//
// Longitudes are in [0, 360) when the grid crosses the antemeridian.
func (g *Grid) ApproxTransform() Affine {
	return g.approx
}

// CrossAntemeridian reports whether the grid spans the 180th meridian.
func (g *Grid) CrossAntemeridian() bool {
	return g.cross
}

// MidPixelAzimuthTimes returns the azimuth time of each grid line, sampled at
// the middle pixel column.
func (g *Grid) MidPixelAzimuthTimes() []time.Time {
	mid := (len(g.Pixels) - 1) / 2
	out := make([]time.Time, len(g.AzimuthTime))
	for i, row := range g.AzimuthTime {
		out[i] = row[mid]
	}
	return out
}
