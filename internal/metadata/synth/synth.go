// Package synth builds synthetic SAFE products in a metadata.Memory provider.
//
// The geometry is analytic (see Product.Lon and Product.Lat), mildly
// non-linear so that the affine approximation carries a measurable bias while
// a bilinear interpolation of the grid stays accurate to a small fraction of
// a pixel.
package synth

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"

	"github.com/robert-malhotra/s1meta/internal/metadata"
)

// Product describes a synthetic product. Zero fields take the defaults of
// Default.
type Product struct {
	Dir         string
	ProductType string // "SLC", "GRDH", ...
	Swath       string // "IW", "EW", "WV"
	Subswaths   []string

	Lines, Pixels int

	// LinesPerBurst and Bursts describe a TOPS acquisition. When Bursts is
	// zero the grid is regularly spaced over GridLines lines.
	LinesPerBurst int
	Bursts        int
	GridLines     int
	GridPixels    int

	Lon0, Lat0 float64

	// LonStep is the longitude increment per pixel.
	LonStep float64

	// SubswathOffset shifts the longitude of each successive subswath.
	SubswathOffset float64

	Start        time.Time
	LineInterval float64 // seconds

	// DeclareFootprints makes the manifest carry one footprint per
	// subswath. Otherwise it carries a single footprint.
	DeclareFootprints bool

	Pass            string
	PlatformHeading float64
}

// Default returns a single subswath TOPS SLC product with 3 bursts.
func Default() Product {
	return Product{
		Dir:               "/data/S1A_IW_SLC__1SDV_20210304T050607_20210304T050634_036846_045A5E_1F4B.SAFE",
		ProductType:       "SLC",
		Swath:             "IW",
		Subswaths:         []string{"IW1"},
		Lines:             4500,
		Pixels:            25000,
		LinesPerBurst:     1500,
		Bursts:            3,
		GridPixels:        21,
		Lon0:              10,
		Lat0:              45,
		LonStep:           1e-4,
		SubswathOffset:    2.2,
		Start:             time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC),
		LineInterval:      2.055556e-3,
		DeclareFootprints: true,
		Pass:              "Descending",
		PlatformHeading:   -167.5,
	}
}

// GRD returns a continuous scan product with a regular grid.
func GRD() Product {
	p := Default()
	p.Dir = "/data/S1A_IW_GRDH_1SDV_20210304T050607_20210304T050634_036846_045A5E_AB12.SAFE"
	p.ProductType = "GRDH"
	p.Subswaths = []string{"IW"}
	p.Lines = 16000
	p.Pixels = 25000
	p.LinesPerBurst = 0
	p.Bursts = 0
	p.GridLines = 10
	p.LineInterval = 1.5e-3
	return p
}

// SAFE is the product directory base name.
func (p Product) SAFE() string {
	return filepath.Base(p.Dir)
}

// Manifest is the manifest document path.
func (p Product) Manifest() string {
	return filepath.Join(p.Dir, "manifest.safe")
}

// AnnotationPath is the annotation path of a subswath, relative to Dir.
func (p Product) AnnotationPath(dsid string) string {
	return fmt.Sprintf("annotation/s1a-%s-%s-vv.xml", strings.ToLower(dsid), strings.ToLower(p.ProductType))
}

// Annotation is the annotation document of a subswath.
func (p Product) Annotation(dsid string) string {
	return filepath.Join(p.Dir, p.AnnotationPath(dsid))
}

// Lon is the analytic longitude of subswath k at (line, pixel).
func (p Product) Lon(k int, line, pixel float64) float64 {
	u := pixel / float64(p.Pixels)
	return p.Lon0 + float64(k)*p.SubswathOffset + p.LonStep*pixel - 2e-5*line + 0.01*u*u
}

// Lat is the analytic latitude of subswath k at (line, pixel).
func (p Product) Lat(k int, line, pixel float64) float64 {
	u := pixel / float64(p.Pixels)
	v := line / float64(p.Lines)
	return p.Lat0 + 1.2e-4*line + 1e-5*pixel + 0.005*u*v
}

// WrapLon180 maps a longitude to [-180, 180).
func WrapLon180(lon float64) float64 {
	return lon - 360*math.Floor((lon+180)/360)
}

// LineTime is the zero-Doppler time of a full resolution line.
func (p Product) LineTime(line float64) time.Time {
	if p.Bursts > 0 {
		k := math.Floor(line / float64(p.LinesPerBurst))
		start := p.BurstStart(int(k))
		return start.Add(seconds((line - k*float64(p.LinesPerBurst)) * p.LineInterval))
	}
	return p.Start.Add(seconds(line * p.LineInterval))
}

// BurstStart is the azimuth time of the first line of burst k.
func (p Product) BurstStart(k int) time.Time {
	// Consecutive bursts overlap in time by a tenth of a burst.
	step := 0.9 * float64(p.LinesPerBurst) * p.LineInterval
	return p.Start.Add(seconds(float64(k) * step))
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// GridAxes returns the sampled lines and pixels of the geolocation grid.
func (p Product) GridAxes() (lines, pixels []float64) {
	if p.Bursts > 0 {
		for k := 0; k < p.Bursts; k++ {
			lines = append(lines, float64(k*p.LinesPerBurst))
		}
		lines = append(lines, float64(p.Bursts*p.LinesPerBurst-1))
	} else {
		lines = linspace(0, float64(p.Lines-1), p.GridLines)
	}
	return lines, linspace(0, float64(p.Pixels-1), p.GridPixels)
}

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a + (b-a)*float64(i)/float64(n-1)
	}
	return out
}

// Footprint is the corner polygon of subswath k, in the grid winding.
func (p Product) Footprint(k int) geom.Polygon {
	lines, pixels := p.GridAxes()
	l0, l1 := lines[0], lines[len(lines)-1]
	p0, p1 := pixels[0], pixels[len(pixels)-1]
	ring := geom.Path{}
	for _, c := range [][2]float64{{l0, p0}, {l0, p1}, {l1, p1}, {l1, p0}} {
		ring = append(ring, geom.Point{X: WrapLon180(p.Lon(k, c[0], c[1])), Y: p.Lat(k, c[0], c[1])})
	}
	return geom.Polygon{append(ring, ring[0])}
}

// Build fills a new Memory provider with the product.
func Build(p Product) *metadata.Memory {
	m := metadata.NewMemory()
	Fill(m, p)
	return m
}

// Fill adds the product documents to m.
func Fill(m *metadata.Memory, p Product) {
	manifest := p.Manifest()
	files := make([]metadata.FileEntry, 0, len(p.Subswaths))
	for i, dsid := range p.Subswaths {
		files = append(files, metadata.FileEntry{
			DSID:         dsid,
			Polarization: "VV",
			Annotation:   p.AnnotationPath(dsid),
			Measurement:  fmt.Sprintf("measurement/s1a-%s-%s-vv-%03d.tiff", strings.ToLower(dsid), strings.ToLower(p.ProductType), i+1),
			Calibration:  "annotation/calibration/calibration-" + filepath.Base(p.AnnotationPath(dsid)),
			Noise:        "annotation/calibration/noise-" + filepath.Base(p.AnnotationPath(dsid)),
		})
	}

	attrs := &metadata.SafeAttributes{
		Mission:       "SENTINEL-1",
		Satellite:     "A",
		SwathType:     p.Swath,
		Polarizations: []string{"VV"},
		IPFVersion:    "003.31",
		StartDate:     p.Start,
		StopDate:      p.LineTime(float64(p.Lines - 1)),
	}
	if p.DeclareFootprints {
		for k := range p.Subswaths {
			attrs.Footprints = append(attrs.Footprints, p.Footprint(k))
		}
	} else {
		attrs.Footprints = []geom.Polygon{p.Footprint(0)}
	}
	m.SetCompound(manifest, metadata.VarSafeAttributes, attrs, "manifest.safe: safe_attributes")
	m.SetCompound(manifest, metadata.VarFiles, files, "manifest.safe: files")

	for k, dsid := range p.Subswaths {
		fillAnnotation(m, p, k, p.Annotation(dsid))
	}
}

func fillAnnotation(m *metadata.Memory, p Product, k int, doc string) {
	lines, pixels := p.GridAxes()
	base := filepath.Base(doc)

	grid := func(f func(l, px float64) float64) *metadata.Grid2D {
		g := &metadata.Grid2D{Lines: lines, Pixels: pixels, Values: make([][]float64, len(lines))}
		for i, l := range lines {
			g.Values[i] = make([]float64, len(pixels))
			for j, px := range pixels {
				g.Values[i][j] = f(l, px)
			}
		}
		return g
	}

	set := func(name string, v any) {
		m.SetCompound(doc, name, v, fmt.Sprintf("%s: geolocationGrid/%s", base, name))
	}
	set(metadata.VarLongitude, grid(func(l, px float64) float64 { return WrapLon180(p.Lon(k, l, px)) }))
	set(metadata.VarLatitude, grid(func(l, px float64) float64 { return p.Lat(k, l, px) }))
	set(metadata.VarAltitude, grid(func(l, px float64) float64 { return 10 + 1e-4*l }))
	set(metadata.VarSlantRangeTime, grid(func(l, px float64) float64 { return 5.3e-3 + 2.6e-9*px }))
	set(metadata.VarIncidence, grid(func(l, px float64) float64 { return 30.5 + 15*px/float64(p.Pixels) }))
	set(metadata.VarElevation, grid(func(l, px float64) float64 { return 27 + 13*px/float64(p.Pixels) }))

	azt := &metadata.TimeGrid2D{Lines: lines, Pixels: pixels, Values: make([][]time.Time, len(lines))}
	for i, l := range lines {
		azt.Values[i] = make([]time.Time, len(pixels))
		for j := range pixels {
			azt.Values[i][j] = p.LineTime(l)
		}
	}
	set(metadata.VarAzimuthTime, azt)

	m.SetCompound(doc, metadata.VarImage, &metadata.ImageInfo{
		Shape:               [2]int{p.Lines, p.Pixels},
		GroundPixelSpacing:  [2]float64{13.9, 2.3},
		AzimuthTimeInterval: p.LineInterval,
	}, base+": imageAnnotation/imageInformation")

	m.SetScalar(doc, metadata.ScalarNumberOfBursts, p.Bursts)
	m.SetScalar(doc, metadata.ScalarLineTimeRange, []time.Time{p.LineTime(0), p.LineTime(float64(p.Lines - 1))})

	bursts := &metadata.BurstList{LinesPerBurst: p.LinesPerBurst}
	for b := 0; b < p.Bursts; b++ {
		first := float64(b * p.LinesPerBurst)
		bursts.Bursts = append(bursts.Bursts, metadata.BurstRecord{
			AzimuthTime:   p.BurstStart(b),
			ValidLocation: [4]float64{first + 50, 100, first + float64(p.LinesPerBurst) - 50, float64(p.Pixels) - 100},
		})
	}
	m.SetCompound(doc, metadata.VarBursts, bursts, base+": swathTiming/burstList")
	m.SetCompound(doc, metadata.VarBurstsGRD, &metadata.BurstList{}, base+": swathTiming/burstList")

	m.SetCompound(doc, metadata.VarOrbit, &metadata.Orbit{
		Pass:            p.Pass,
		PlatformHeading: p.PlatformHeading,
		StateVectors: []metadata.StateVector{
			{Time: p.Start, Position: [3]float64{4.5e6, 8.1e5, 5.3e6}, Velocity: [3]float64{-5.6e3, -1.2e3, 4.7e3}},
			{Time: p.Start.Add(10 * time.Second), Position: [3]float64{4.44e6, 7.98e5, 5.35e6}, Velocity: [3]float64{-5.65e3, -1.21e3, 4.65e3}},
		},
		History: base + ": generalAnnotation/orbitList",
	}, base+": generalAnnotation/orbitList")
	m.SetCompound(doc, metadata.VarDenoised, metadata.Denoised{Polarization: "VV", Value: false}, base+": imageAnnotation/processingInformation")

	fm := &metadata.FMRateList{}
	dc := &metadata.DopplerList{}
	for b := 0; b < max(p.Bursts, 1); b++ {
		t := p.BurstStart(b)
		fm.Rates = append(fm.Rates, metadata.FMRate{
			AzimuthTime:  t,
			T0:           5.3e-3,
			Coefficients: [3]float64{-2300 - float64(b), 4.5e5, -8e7},
		})
		dc.Estimates = append(dc.Estimates, metadata.DopplerEstimate{
			AzimuthTime:        t,
			T0:                 5.3e-3,
			GeometryPolynomial: []float64{-12.5, 1000},
			DataPolynomial:     []float64{-20 + float64(b), 2000, 0},
			Frequencies:        []float64{-19.5, -20.1},
		})
	}
	m.SetCompound(doc, metadata.VarAzimuthFMRate, fm, base+": generalAnnotation/azimuthFmRateList")
	m.SetCompound(doc, metadata.VarDoppler, dc, base+": dopplerCentroid/dcEstimateList")
}
