// Package burst recovers the bursts of TOPS acquisitions from the burst table
// and the geolocation grid, and the azimuth time of every image line.
package burst

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/interp"

	"github.com/robert-malhotra/s1meta/internal/geoloc"
	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/metrics"
)

// Burst is one burst of a split acquisition.
type Burst struct {
	Index int

	// FirstLine and LastLine bound the image lines mapped to the burst.
	FirstLine int
	LastLine  int

	// Image is the burst box in image space (X = line, Y = pixel).
	Image geom.Polygon

	// Geometry is Image converted to lon/lat.
	Geometry geom.Polygon

	AzimuthTime time.Time

	// Subswath is set when bursts are gathered across sub-datasets.
	Subswath string
}

// Segmenter maps image lines to bursts for one annotation document.
// Results are computed on first use and kept. A Segmenter is not safe for
// concurrent use.
type Segmenter struct {
	provider    metadata.Provider
	doc         string
	productType string
	swath       string
	engine      *geoloc.Engine
	logger      *slog.Logger

	image   *metadata.ImageInfo
	list    *metadata.BurstList
	indices []int
	azt     []time.Time
	bursts  map[bool][]Burst
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithLogger sets the logger used to report index clamping.
func WithLogger(l *slog.Logger) Option {
	return func(s *Segmenter) { s.logger = l }
}

// New returns a segmenter for the annotation document doc.
func New(p metadata.Provider, doc, productType, swath string, engine *geoloc.Engine, opts ...Option) *Segmenter {
	s := &Segmenter{
		provider:    p,
		doc:         doc,
		productType: productType,
		swath:       swath,
		engine:      engine,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bursts:      make(map[bool][]Burst, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Applicable reports whether the product is a split (TOPS) acquisition:
// an SLC product outside wave mode.
func (s *Segmenter) Applicable() bool {
	return s.productType == "SLC" && !strings.Contains(s.swath, "WV")
}

func (s *Segmenter) imageInfo() (*metadata.ImageInfo, error) {
	if s.image == nil {
		img, err := metadata.Image(s.provider, s.doc)
		if err != nil {
			return nil, fmt.Errorf("failed to read image information: %w", err)
		}
		s.image = img
	}
	return s.image, nil
}

// List returns the burst table. Products declaring no burst carry their
// table in the GRD variant.
func (s *Segmenter) List() (*metadata.BurstList, error) {
	if s.list != nil {
		return s.list, nil
	}
	n, err := metadata.Int(s.provider, s.doc, metadata.ScalarNumberOfBursts)
	if err != nil {
		return nil, fmt.Errorf("failed to read burst count: %w", err)
	}
	name := metadata.VarBursts
	if n == 0 {
		name = metadata.VarBurstsGRD
	}
	list, err := metadata.Bursts(s.provider, s.doc, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read burst list: %w", err)
	}
	s.list = list
	return list, nil
}

// Indices maps every image line to a geolocation grid line index: the first
// grid line belonging to the same burst, or to the nearest earlier one.
// Lines past the grid's azimuth coverage are clamped to the last grid line.
// It returns nil for products that are not split.
func (s *Segmenter) Indices() ([]int, error) {
	if !s.Applicable() {
		return nil, nil
	}
	if s.indices != nil {
		return s.indices, nil
	}
	list, err := s.List()
	if err != nil {
		return nil, err
	}
	if list.LinesPerBurst <= 0 {
		return nil, fmt.Errorf("burst list of %s declares %d lines per burst", s.doc, list.LinesPerBurst)
	}
	img, err := s.imageInfo()
	if err != nil {
		return nil, err
	}
	gridLines := s.engine.Grid().Lines

	lpb := float64(list.LinesPerBurst)
	gridBurst := make([]int, len(gridLines))
	for i, l := range gridLines {
		gridBurst[i] = int(math.Floor(l / lpb))
	}

	last := len(gridLines) - 1
	clamped := 0
	indices := make([]int, img.Shape[0])
	for line := range indices {
		b := int(math.Floor(float64(line) / lpb))
		ind := sort.SearchInts(gridBurst, b)
		if ind > last {
			ind = last
			clamped++
		}
		indices[line] = ind
	}
	if clamped > 0 {
		// Recovery for images whose extent slightly exceeds the grid.
		s.logger.Debug("clamped burst indices to the last grid line",
			"doc", s.doc,
			"lines", clamped,
		)
		metrics.BurstClamps(clamped)
	}

	s.indices = indices
	return indices, nil
}

// AzimuthTimes returns the azimuth time of every image line, at the middle
// of the swath. Split acquisitions add the line interval to the grid time
// of the mapped burst start; continuous acquisitions interpolate linearly
// along the grid lines.
func (s *Segmenter) AzimuthTimes() ([]time.Time, error) {
	if s.azt != nil {
		return s.azt, nil
	}
	img, err := s.imageInfo()
	if err != nil {
		return nil, err
	}
	grid := s.engine.Grid()
	gridTimes := grid.MidPixelAzimuthTimes()
	if len(gridTimes) == 0 {
		return nil, fmt.Errorf("%w: no azimuth time samples", geoloc.ErrInvalidGrid)
	}

	out := make([]time.Time, img.Shape[0])
	if s.Applicable() {
		indices, err := s.Indices()
		if err != nil {
			return nil, err
		}
		dt := img.AzimuthTimeInterval
		for line, ind := range indices {
			offset := (float64(line) - grid.Lines[ind]) * dt
			out[line] = gridTimes[ind].Add(time.Duration(math.Round(offset * float64(time.Second))))
		}
	} else {
		origin := gridTimes[0]
		secs := make([]float64, len(gridTimes))
		for i, t := range gridTimes {
			secs[i] = t.Sub(origin).Seconds()
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(grid.Lines, secs); err != nil {
			return nil, fmt.Errorf("failed to fit azimuth time: %w", err)
		}
		for line := range out {
			sec := pl.Predict(float64(line))
			out[line] = origin.Add(time.Duration(math.Round(sec * float64(time.Second))))
		}
	}

	s.azt = out
	return out, nil
}

// Bursts returns the burst table with lon/lat geometry, one burst per
// distinct mapped grid index, in line order.
//
// With onlyValid each burst box is the valid location of the burst table.
// Otherwise it spans the mapped image lines over the full image width, and
// consecutive boxes partition the image lines.
//
// Products that are not split, or declare no burst, return an empty table.
func (s *Segmenter) Bursts(onlyValid bool) ([]Burst, error) {
	if b, ok := s.bursts[onlyValid]; ok {
		return b, nil
	}
	if !s.Applicable() {
		s.bursts[onlyValid] = []Burst{}
		return s.bursts[onlyValid], nil
	}
	list, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(list.Bursts) == 0 {
		s.bursts[onlyValid] = []Burst{}
		return s.bursts[onlyValid], nil
	}
	indices, err := s.Indices()
	if err != nil {
		return nil, err
	}
	img, err := s.imageInfo()
	if err != nil {
		return nil, err
	}

	spans := lineSpans(indices)
	if n := len(list.Bursts); len(spans) > n {
		// Clamped lines past the last declared burst belong to it.
		spans[n-1][1] = spans[len(spans)-1][1]
		spans = spans[:n]
	}

	out := make([]Burst, 0, len(spans))
	for k, span := range spans {
		first, last := span[0], span[1]

		var box geom.Polygon
		if onlyValid {
			v := list.Bursts[k].ValidLocation
			box = rect(v[0], v[1], v[2], v[3])
		} else {
			box = rect(float64(first), 0, float64(last), float64(img.Shape[1]))
		}
		g, err := s.engine.CoordsToLLGeom(box)
		if err != nil {
			return nil, fmt.Errorf("failed to geolocate burst %d: %w", k, err)
		}

		out = append(out, Burst{
			Index:       k,
			FirstLine:   first,
			LastLine:    last,
			Image:       box,
			Geometry:    g.(geom.Polygon),
			AzimuthTime: list.Bursts[k].AzimuthTime,
		})
	}

	s.bursts[onlyValid] = out
	return out, nil
}

// lineSpans groups consecutive lines sharing an index into [first, last] spans.
func lineSpans(indices []int) [][2]int {
	var spans [][2]int
	for first := 0; first < len(indices); {
		last := first
		for last+1 < len(indices) && indices[last+1] == indices[first] {
			last++
		}
		spans = append(spans, [2]int{first, last})
		first = last + 1
	}
	return spans
}

// rect is the closed box polygon (x0, y0), (x0, y1), (x1, y1), (x1, y0).
func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x0, Y: y1},
		{X: x1, Y: y1},
		{X: x1, Y: y0},
		{X: x0, Y: y0},
	}}
}
