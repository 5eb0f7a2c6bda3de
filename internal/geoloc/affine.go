package geoloc

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Affine maps (line, pixel) to (x, y):
//
//	x = A*line + B*pixel + C
//	y = D*line + E*pixel + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Apply evaluates the transform.
func (a Affine) Apply(line, pixel float64) (x, y float64) {
	return a.A*line + a.B*pixel + a.C, a.D*line + a.E*pixel + a.F
}

// Invert returns the inverse transform, mapping (x, y) back to (line, pixel).
func (a Affine) Invert() (Affine, error) {
	m := mat.NewDense(3, 3, []float64{
		a.A, a.B, a.C,
		a.D, a.E, a.F,
		0, 0, 1,
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Affine{}, fmt.Errorf("affine transform is not invertible: %w", err)
	}
	return Affine{
		A: inv.At(0, 0), B: inv.At(0, 1), C: inv.At(0, 2),
		D: inv.At(1, 0), E: inv.At(1, 1), F: inv.At(1, 2),
	}, nil
}

// FitAffine fits an affine transform from control points by least squares.
// Every control point contributes; at least three non-collinear points are
// needed.
func FitAffine(lines, pixels, xs, ys []float64) (Affine, error) {
	n := len(lines)
	if n != len(pixels) || n != len(xs) || n != len(ys) {
		return Affine{}, ErrLengthMismatch
	}
	if n < 3 {
		return Affine{}, fmt.Errorf("%w: %d control points, need 3", ErrInvalidGrid, n)
	}

	design := mat.NewDense(n, 3, nil)
	rhs := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, lines[i])
		design.Set(i, 1, pixels[i])
		design.Set(i, 2, 1)
		rhs.Set(i, 0, xs[i])
		rhs.Set(i, 1, ys[i])
	}

	var coef mat.Dense
	if err := coef.Solve(design, rhs); err != nil {
		return Affine{}, fmt.Errorf("%w: affine fit: %v", ErrInvalidGrid, err)
	}

	return Affine{
		A: coef.At(0, 0), B: coef.At(1, 0), C: coef.At(2, 0),
		D: coef.At(0, 1), E: coef.At(1, 1), F: coef.At(2, 1),
	}, nil
}
