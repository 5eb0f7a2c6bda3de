package metadata

import (
	"fmt"
	"time"

	"github.com/ctessum/geom"
)

// Grid2D is a float variable sampled on the geolocation grid.
// Values is indexed [line][pixel].
type Grid2D struct {
	Lines  []float64
	Pixels []float64
	Values [][]float64
}

// TimeGrid2D is a time variable sampled on the geolocation grid.
type TimeGrid2D struct {
	Lines  []float64
	Pixels []float64
	Values [][]time.Time
}

// Validate checks that the value matrix matches the axes.
func (g *Grid2D) Validate() error {
	return checkShape(len(g.Lines), len(g.Pixels), len(g.Values), func(i int) int { return len(g.Values[i]) })
}

// Validate checks that the value matrix matches the axes.
func (g *TimeGrid2D) Validate() error {
	return checkShape(len(g.Lines), len(g.Pixels), len(g.Values), func(i int) int { return len(g.Values[i]) })
}

func checkShape(nLines, nPixels, nRows int, rowLen func(int) int) error {
	if nRows != nLines {
		return fmt.Errorf("grid has %d rows for %d lines", nRows, nLines)
	}
	for i := 0; i < nRows; i++ {
		if n := rowLen(i); n != nPixels {
			return fmt.Errorf("grid row %d has %d values for %d pixels", i, n, nPixels)
		}
	}
	return nil
}

// SafeAttributes holds manifest level attributes of a product.
type SafeAttributes struct {
	Mission       string
	Satellite     string
	SwathType     string
	Polarizations []string
	IPFVersion    string
	StartDate     time.Time
	StopDate      time.Time

	// Footprints are lon/lat polygons, one per sub-dataset when the manifest declares them.
	Footprints []geom.Polygon
}

// FileEntry is one row of the manifest file table. Paths are relative to
// the product directory; DSID is the short dataset id (e.g. "IW1", "WV_001").
type FileEntry struct {
	DSID         string
	Polarization string
	Annotation   string
	Measurement  string
	Calibration  string
	Noise        string
}

// ImageInfo describes the full resolution image of an annotation document.
type ImageInfo struct {
	// Shape is (lines, pixels).
	Shape [2]int

	// GroundPixelSpacing is (line, pixel) spacing in meters.
	GroundPixelSpacing [2]float64

	// AzimuthTimeInterval is the time between two lines, in seconds.
	AzimuthTimeInterval float64
}

// BurstRecord is one burst of a split acquisition.
type BurstRecord struct {
	AzimuthTime time.Time

	// ValidLocation is (firstLine, firstPixel, lastLine, lastPixel).
	ValidLocation [4]float64
}

// BurstList is the burst table of an annotation document.
type BurstList struct {
	LinesPerBurst int
	Bursts        []BurstRecord
}

// StateVector is one orbit sample, in geocentric coordinates.
type StateVector struct {
	Time     time.Time
	Position [3]float64
	Velocity [3]float64
}

// Orbit holds state vectors and pass information.
type Orbit struct {
	Pass            string
	PlatformHeading float64
	StateVectors    []StateVector
	History         string
}

// Denoised tells whether a polarization was denoised at L1.
type Denoised struct {
	Polarization string
	Value        bool
}

// FMRate is one azimuth FM rate estimate. The rate at slant range time
// tSR is Coefficients[0] + Coefficients[1](tSR-T0) + Coefficients[2](tSR-T0)^2.
type FMRate struct {
	AzimuthTime  time.Time
	T0           float64
	Coefficients [3]float64
}

// FMRateList is the azimuth FM rate list of an annotation document.
type FMRateList struct {
	Rates   []FMRate
	History string
}

// DopplerEstimate is one Doppler centroid estimate. Polynomials are in
// slant range time relative to T0.
type DopplerEstimate struct {
	AzimuthTime        time.Time
	T0                 float64
	GeometryPolynomial []float64
	DataPolynomial     []float64

	// Frequencies are the fine Doppler centroid frequencies, in Hz.
	Frequencies []float64
}

// DopplerList is the Doppler centroid estimate list of an annotation document.
type DopplerList struct {
	Estimates []DopplerEstimate
	History   string
}
