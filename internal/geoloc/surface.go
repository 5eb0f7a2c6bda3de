package geoloc

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Surface is a piecewise bilinear surface over a rectilinear grid: linear
// along pixels within each grid line, blended linearly between lines.
// Queries outside the grid are clamped to its border.
type Surface struct {
	lines []float64
	rows  []interp.PiecewiseLinear
	pMin  float64
	pMax  float64
}

// NewSurface fits a surface to values indexed [line][pixel].
func NewSurface(lines, pixels []float64, values [][]float64) (*Surface, error) {
	if len(lines) < 2 || len(pixels) < 2 {
		return nil, fmt.Errorf("%w: surface needs at least 2x2 samples, got %dx%d", ErrInvalidGrid, len(lines), len(pixels))
	}
	s := &Surface{
		lines: lines,
		rows:  make([]interp.PiecewiseLinear, len(lines)),
		pMin:  pixels[0],
		pMax:  pixels[len(pixels)-1],
	}
	for i := range lines {
		if err := s.rows[i].Fit(pixels, values[i]); err != nil {
			return nil, fmt.Errorf("%w: line %v: %v", ErrInvalidGrid, lines[i], err)
		}
	}
	return s, nil
}

// At evaluates the surface at (line, pixel).
func (s *Surface) At(line, pixel float64) float64 {
	pixel = clamp(pixel, s.pMin, s.pMax)
	n := len(s.lines)
	if line <= s.lines[0] {
		return s.rows[0].Predict(pixel)
	}
	if line >= s.lines[n-1] {
		return s.rows[n-1].Predict(pixel)
	}

	// lines[i-1] < line <= lines[i]
	i := sort.SearchFloat64s(s.lines, line)
	l0, l1 := s.lines[i-1], s.lines[i]
	t := (line - l0) / (l1 - l0)
	return (1-t)*s.rows[i-1].Predict(pixel) + t*s.rows[i].Predict(pixel)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
