package geoloc

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Engine converts between image coordinates and geographic coordinates on a
// Grid.
//
// Accurate conversions use piecewise bilinear surfaces fitted to the grid,
// built on first use. Approximate conversions apply the grid's affine
// transform.
//
// Geographic to image conversion has no closed form. LLToCoords inverts the
// affine transform, maps that first guess forward through the accurate
// surfaces, inverts the affine transform again and subtracts the difference
// from the first guess. This single correction step is not iterated: it costs
// two affine inversions and one surface evaluation per point and leaves an
// error of second order in the affine bias gradient, well under one pixel on
// Sentinel-1 grids.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	grid *Grid
	inv  Affine
	ref  float64

	lon *Surface
	lat *Surface
}

// Option tunes a conversion.
type Option func(*options)

type options struct {
	approx bool
}

// Approx selects the affine transform.
func Approx() Option {
	return func(o *options) { o.approx = true }
}

// Accurate selects the bilinear surfaces.
func Accurate() Option {
	return func(o *options) { o.approx = false }
}

func collect(approx bool, opts []Option) options {
	o := options{approx: approx}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewEngine returns an engine for g.
func NewEngine(g *Grid) (*Engine, error) {
	inv, err := g.approx.Invert()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	}
	return &Engine{grid: g, inv: inv, ref: g.lon[0][0]}, nil
}

// Grid returns the underlying grid.
func (e *Engine) Grid() *Grid {
	return e.grid
}

func (e *Engine) surfaces() error {
	if e.lon != nil {
		return nil
	}
	lat, err := NewSurface(e.grid.Lines, e.grid.Pixels, e.grid.Latitude)
	if err != nil {
		return err
	}
	lon, err := NewSurface(e.grid.Lines, e.grid.Pixels, e.grid.lon)
	if err != nil {
		return err
	}
	e.lon, e.lat = lon, lat
	return nil
}

// forward returns the longitude in the grid's internal convention.
func (e *Engine) forward(line, pixel float64, approx bool) (lon, lat float64, err error) {
	if approx {
		lon, lat = e.grid.approx.Apply(line, pixel)
		return lon, lat, nil
	}
	if err := e.surfaces(); err != nil {
		return 0, 0, err
	}
	return e.lon.At(line, pixel), e.lat.At(line, pixel), nil
}

// CoordToLL converts one image coordinate. Longitude is in [-180, 180).
func (e *Engine) CoordToLL(line, pixel float64, opts ...Option) (lon, lat float64, err error) {
	o := collect(false, opts)
	lon, lat, err = e.forward(line, pixel, o.approx)
	if err != nil {
		return 0, 0, err
	}
	return ToLon180(lon), lat, nil
}

// CoordsToLL converts image coordinates pointwise.
func (e *Engine) CoordsToLL(lines, pixels []float64, opts ...Option) (lons, lats []float64, err error) {
	if len(lines) != len(pixels) {
		return nil, nil, fmt.Errorf("%w: %d lines, %d pixels", ErrLengthMismatch, len(lines), len(pixels))
	}
	o := collect(false, opts)
	lons = make([]float64, len(lines))
	lats = make([]float64, len(lines))
	for i := range lines {
		lon, lat, err := e.forward(lines[i], pixels[i], o.approx)
		if err != nil {
			return nil, nil, err
		}
		lons[i], lats[i] = ToLon180(lon), lat
	}
	return lons, lats, nil
}

// CoordsToLLGrid converts the outer product of lines and pixels. Results are
// indexed [line][pixel].
func (e *Engine) CoordsToLLGrid(lines, pixels []float64, opts ...Option) (lons, lats [][]float64, err error) {
	o := collect(false, opts)
	lons = make([][]float64, len(lines))
	lats = make([][]float64, len(lines))
	for i, l := range lines {
		lons[i] = make([]float64, len(pixels))
		lats[i] = make([]float64, len(pixels))
		for j, p := range pixels {
			lon, lat, err := e.forward(l, p, o.approx)
			if err != nil {
				return nil, nil, err
			}
			lons[i][j], lats[i][j] = ToLon180(lon), lat
		}
	}
	return lons, lats, nil
}

// LLToCoord converts one geographic coordinate to (line, pixel).
// With Approx only the inverse affine transform is applied.
func (e *Engine) LLToCoord(lon, lat float64, opts ...Option) (line, pixel float64, err error) {
	o := collect(false, opts)

	// Bring lon within 180 degrees of the grid.
	lon = e.ref + ToLon180(lon-e.ref)

	l0, p0 := e.inv.Apply(lon, lat)
	if o.approx {
		return l0, p0, nil
	}
	lon1, lat1, err := e.forward(l0, p0, false)
	if err != nil {
		return 0, 0, err
	}
	l1, p1 := e.inv.Apply(lon1, lat1)
	return l0 - (l1 - l0), p0 - (p1 - p0), nil
}

// LLToCoords converts geographic coordinates pointwise.
func (e *Engine) LLToCoords(lons, lats []float64, opts ...Option) (lines, pixels []float64, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("%w: %d longitudes, %d latitudes", ErrLengthMismatch, len(lons), len(lats))
	}
	lines = make([]float64, len(lons))
	pixels = make([]float64, len(lons))
	for i := range lons {
		lines[i], pixels[i], err = e.LLToCoord(lons[i], lats[i], opts...)
		if err != nil {
			return nil, nil, err
		}
	}
	return lines, pixels, nil
}

// CoordsToLLGeom converts every vertex of an image space shape, where
// X is the line and Y the pixel.
func (e *Engine) CoordsToLLGeom(g geom.Geom, opts ...Option) (geom.Geom, error) {
	return g.Transform(func(line, pixel float64) (float64, float64, error) {
		return e.CoordToLL(line, pixel, opts...)
	})
}

// LLToCoordsGeom converts every vertex of a lon/lat shape to image space.
func (e *Engine) LLToCoordsGeom(g geom.Geom, opts ...Option) (geom.Geom, error) {
	return g.Transform(func(lon, lat float64) (float64, float64, error) {
		return e.LLToCoord(lon, lat, opts...)
	})
}

// CoordsToHeading returns the ground heading, in degrees clockwise from north,
// at each image coordinate: the bearing from (line-1, pixel) to
// (line+1, pixel). It defaults to the approximate transform.
func (e *Engine) CoordsToHeading(lines, pixels []float64, opts ...Option) ([]float64, error) {
	if len(lines) != len(pixels) {
		return nil, fmt.Errorf("%w: %d lines, %d pixels", ErrLengthMismatch, len(lines), len(pixels))
	}
	o := collect(true, opts)
	out := make([]float64, len(lines))
	for i := range lines {
		h, err := e.heading(lines[i], pixels[i], o.approx)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

// CoordsToHeadingGrid is CoordsToHeading over the outer product of lines and
// pixels.
func (e *Engine) CoordsToHeadingGrid(lines, pixels []float64, opts ...Option) ([][]float64, error) {
	o := collect(true, opts)
	out := make([][]float64, len(lines))
	for i, l := range lines {
		out[i] = make([]float64, len(pixels))
		for j, p := range pixels {
			h, err := e.heading(l, p, o.approx)
			if err != nil {
				return nil, err
			}
			out[i][j] = h
		}
	}
	return out, nil
}

func (e *Engine) heading(line, pixel float64, approx bool) (float64, error) {
	lon1, lat1, err := e.forward(line-1, pixel, approx)
	if err != nil {
		return 0, err
	}
	lon2, lat2, err := e.forward(line+1, pixel, approx)
	if err != nil {
		return 0, err
	}
	return Bearing(ToLon180(lon1), lat1, ToLon180(lon2), lat2), nil
}
