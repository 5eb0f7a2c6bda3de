package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
)

// BundleName is the file name of a metadata bundle inside a product directory.
const BundleName = "s1meta.json"

// Bundle is a Provider backed by a JSON document of pre-extracted variables.
//
// Layout:
//
//	{"documents": {"<path relative to product>": {
//	    "scalars": {...}, "compounds": {...}, "descriptions": {...}}}}
//
// Compounds are decoded on demand into the typed records of types.go,
// selected by variable name.
type Bundle struct {
	root string
	docs map[string]bundleDocument
}

type bundleDocument struct {
	Scalars      map[string]any             `json:"scalars"`
	Compounds    map[string]json.RawMessage `json:"compounds"`
	Descriptions map[string]string          `json:"descriptions"`
}

// LoadBundle reads a bundle file. Document paths are resolved against the
// directory that holds the bundle.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata bundle: %w", err)
	}
	defer f.Close()

	return ReadBundle(f, filepath.Dir(path))
}

// ReadBundle decodes a bundle from r, with documents relative to root.
func ReadBundle(r io.Reader, root string) (*Bundle, error) {
	var raw struct {
		Documents map[string]bundleDocument `json:"documents"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse metadata bundle: %w", err)
	}
	if len(raw.Documents) == 0 {
		return nil, fmt.Errorf("metadata bundle has no documents")
	}

	docs := make(map[string]bundleDocument, len(raw.Documents))
	for name, d := range raw.Documents {
		docs[filepath.ToSlash(filepath.Clean(name))] = d
	}
	return &Bundle{root: root, docs: docs}, nil
}

func (b *Bundle) lookup(doc string) (bundleDocument, error) {
	key := doc
	if rel, err := filepath.Rel(b.root, doc); err == nil && !strings.HasPrefix(rel, "..") {
		key = rel
	}
	d, ok := b.docs[filepath.ToSlash(filepath.Clean(key))]
	if !ok {
		return bundleDocument{}, fmt.Errorf("document %q: %w", doc, ErrNotFound)
	}
	return d, nil
}

// Scalar implements Provider.
func (b *Bundle) Scalar(doc, name string) (any, error) {
	d, err := b.lookup(doc)
	if err != nil {
		return nil, err
	}
	v, ok := d.Scalars[name]
	if !ok {
		return nil, fmt.Errorf("scalar %q in %q: %w", name, doc, ErrNotFound)
	}
	return v, nil
}

// Compound implements Provider.
func (b *Bundle) Compound(doc, name string) (any, error) {
	d, err := b.lookup(doc)
	if err != nil {
		return nil, err
	}
	raw, ok := d.Compounds[name]
	if !ok {
		return nil, fmt.Errorf("compound %q in %q: %w", name, doc, ErrNotFound)
	}
	v, err := decodeCompound(name, raw)
	if err != nil {
		return nil, fmt.Errorf("compound %q in %q: %w", name, doc, err)
	}
	return v, nil
}

// Describe implements Provider.
func (b *Bundle) Describe(doc, name string) (string, error) {
	d, err := b.lookup(doc)
	if err != nil {
		return "", err
	}
	if s, ok := d.Descriptions[name]; ok {
		return s, nil
	}
	return fmt.Sprintf("%s:%s", filepath.Base(doc), name), nil
}

type jsonGrid struct {
	Lines  []float64   `json:"lines"`
	Pixels []float64   `json:"pixels"`
	Values [][]float64 `json:"values"`
}

type jsonTimeGrid struct {
	Lines  []float64 `json:"lines"`
	Pixels []float64 `json:"pixels"`
	Values [][]Time  `json:"values"`
}

type jsonSafeAttributes struct {
	Mission       string         `json:"mission"`
	Satellite     string         `json:"satellite"`
	SwathType     string         `json:"swath_type"`
	Polarizations []string       `json:"polarizations"`
	IPFVersion    string         `json:"ipf_version"`
	StartDate     Time           `json:"start_date"`
	StopDate      Time           `json:"stop_date"`
	Footprints    [][][2]float64 `json:"footprints"`
}

type jsonFileEntry struct {
	DSID         string `json:"dsid"`
	Polarization string `json:"polarization"`
	Annotation   string `json:"annotation"`
	Measurement  string `json:"measurement"`
	Calibration  string `json:"calibration"`
	Noise        string `json:"noise"`
}

type jsonImage struct {
	Shape               [2]int     `json:"shape"`
	GroundPixelSpacing  [2]float64 `json:"ground_pixel_spacing"`
	AzimuthTimeInterval float64    `json:"azimuth_time_interval"`
}

type jsonBurstList struct {
	LinesPerBurst int `json:"lines_per_burst"`
	Bursts        []struct {
		AzimuthTime   Time       `json:"azimuth_time"`
		ValidLocation [4]float64 `json:"valid_location"`
	} `json:"bursts"`
}

type jsonOrbit struct {
	Pass            string  `json:"orbit_pass"`
	PlatformHeading float64 `json:"platform_heading"`
	StateVectors    []struct {
		Time     Time       `json:"time"`
		Position [3]float64 `json:"position"`
		Velocity [3]float64 `json:"velocity"`
	} `json:"state_vectors"`
}

type jsonDenoised struct {
	Polarization string `json:"polarization"`
	Value        bool   `json:"value"`
}

type jsonFMRate struct {
	AzimuthTime  Time       `json:"azimuth_time"`
	T0           float64    `json:"t0"`
	Coefficients [3]float64 `json:"coefficients"`
}

type jsonDoppler struct {
	AzimuthTime        Time      `json:"azimuth_time"`
	T0                 float64   `json:"t0"`
	GeometryPolynomial []float64 `json:"geometry_polynomial"`
	DataPolynomial     []float64 `json:"data_polynomial"`
	Frequencies        []float64 `json:"frequencies"`
}

func decodeCompound(name string, raw json.RawMessage) (any, error) {
	switch name {
	case VarLongitude, VarLatitude, VarAltitude, VarSlantRangeTime, VarIncidence, VarElevation:
		var g jsonGrid
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		grid := &Grid2D{Lines: g.Lines, Pixels: g.Pixels, Values: g.Values}
		return grid, grid.Validate()

	case VarAzimuthTime:
		var g jsonTimeGrid
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		grid := &TimeGrid2D{Lines: g.Lines, Pixels: g.Pixels, Values: make([][]time.Time, len(g.Values))}
		for i, row := range g.Values {
			grid.Values[i] = make([]time.Time, len(row))
			for j, t := range row {
				grid.Values[i][j] = t.Time
			}
		}
		return grid, grid.Validate()

	case VarSafeAttributes:
		var a jsonSafeAttributes
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		attrs := &SafeAttributes{
			Mission:       a.Mission,
			Satellite:     a.Satellite,
			SwathType:     a.SwathType,
			Polarizations: a.Polarizations,
			IPFVersion:    a.IPFVersion,
			StartDate:     a.StartDate.Time,
			StopDate:      a.StopDate.Time,
		}
		for _, ring := range a.Footprints {
			path := make(geom.Path, len(ring))
			for i, pt := range ring {
				path[i] = geom.Point{X: pt[0], Y: pt[1]}
			}
			attrs.Footprints = append(attrs.Footprints, geom.Polygon{path})
		}
		return attrs, nil

	case VarFiles:
		var rows []jsonFileEntry
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		files := make([]FileEntry, len(rows))
		for i, r := range rows {
			files[i] = FileEntry(r)
		}
		return files, nil

	case VarImage:
		var img jsonImage
		if err := json.Unmarshal(raw, &img); err != nil {
			return nil, err
		}
		return &ImageInfo{
			Shape:               img.Shape,
			GroundPixelSpacing:  img.GroundPixelSpacing,
			AzimuthTimeInterval: img.AzimuthTimeInterval,
		}, nil

	case VarBursts, VarBurstsGRD:
		var bl jsonBurstList
		if err := json.Unmarshal(raw, &bl); err != nil {
			return nil, err
		}
		list := &BurstList{LinesPerBurst: bl.LinesPerBurst, Bursts: make([]BurstRecord, len(bl.Bursts))}
		for i, b := range bl.Bursts {
			list.Bursts[i] = BurstRecord{AzimuthTime: b.AzimuthTime.Time, ValidLocation: b.ValidLocation}
		}
		return list, nil

	case VarOrbit:
		var o jsonOrbit
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, err
		}
		orbit := &Orbit{Pass: o.Pass, PlatformHeading: o.PlatformHeading}
		for _, sv := range o.StateVectors {
			orbit.StateVectors = append(orbit.StateVectors, StateVector{
				Time:     sv.Time.Time,
				Position: sv.Position,
				Velocity: sv.Velocity,
			})
		}
		return orbit, nil

	case VarDenoised:
		var d jsonDenoised
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return Denoised(d), nil

	case VarAzimuthFMRate:
		var rows []jsonFMRate
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		list := &FMRateList{Rates: make([]FMRate, len(rows))}
		for i, r := range rows {
			list.Rates[i] = FMRate{AzimuthTime: r.AzimuthTime.Time, T0: r.T0, Coefficients: r.Coefficients}
		}
		return list, nil

	case VarDoppler:
		var rows []jsonDoppler
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		list := &DopplerList{Estimates: make([]DopplerEstimate, len(rows))}
		for i, r := range rows {
			list.Estimates[i] = DopplerEstimate{
				AzimuthTime:        r.AzimuthTime.Time,
				T0:                 r.T0,
				GeometryPolynomial: r.GeometryPolynomial,
				DataPolynomial:     r.DataPolynomial,
				Frequencies:        r.Frequencies,
			}
		}
		return list, nil

	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
