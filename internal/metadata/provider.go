// Package metadata defines the contract between the geometry core and whatever
// extracts variables from SAFE annotation documents.
//
// The core never parses raw XML. It asks a Provider for named variables of a
// document (the manifest or one annotation file) and receives either scalar
// values or typed compound records (see types.go).
package metadata

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a document or variable is unknown to the provider.
	ErrNotFound = errors.New("metadata variable not found")

	// ErrTypeMismatch is returned when a variable exists but has an unexpected type.
	ErrTypeMismatch = errors.New("metadata variable has unexpected type")
)

// Provider gives access to pre-extracted metadata variables.
type Provider interface {
	// Scalar returns a scalar or array value (numbers, strings, []any).
	Scalar(doc, name string) (any, error)

	// Compound returns a structured record such as *Grid2D or *BurstList.
	Compound(doc, name string) (any, error)

	// Describe returns a human readable provenance string for the variable.
	Describe(doc, name string) (string, error)
}

// Variable names shared by providers and consumers.
const (
	VarSafeAttributes = "safe_attributes"
	VarFiles          = "files"
	VarImage          = "image"
	VarBursts         = "bursts"
	VarBurstsGRD      = "bursts_grd"
	VarOrbit          = "orbit"
	VarDenoised       = "denoised"
	VarAzimuthFMRate  = "azimuth_fmrate"
	VarDoppler        = "doppler_estimate"

	VarLongitude      = "longitude"
	VarLatitude       = "latitude"
	VarAltitude       = "altitude"
	VarAzimuthTime    = "azimuth_time"
	VarSlantRangeTime = "slant_range_time"
	VarIncidence      = "incidence"
	VarElevation      = "elevation"

	ScalarNumberOfBursts = "annotation.number_of_bursts"
	ScalarLineTimeRange  = "annotation.line_time_range"
)

func compound[T any](p Provider, doc, name string) (T, error) {
	var zero T
	v, err := p.Compound(doc, name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s in %s: got %T: %w", name, doc, v, ErrTypeMismatch)
	}
	return t, nil
}

// Grid reads a float geolocation grid variable.
func Grid(p Provider, doc, name string) (*Grid2D, error) {
	return compound[*Grid2D](p, doc, name)
}

// TimeGrid reads a time-valued geolocation grid variable.
func TimeGrid(p Provider, doc, name string) (*TimeGrid2D, error) {
	return compound[*TimeGrid2D](p, doc, name)
}

// SafeAttrs reads the manifest level product attributes.
func SafeAttrs(p Provider, manifest string) (*SafeAttributes, error) {
	return compound[*SafeAttributes](p, manifest, VarSafeAttributes)
}

// Files reads the manifest file table.
func Files(p Provider, manifest string) ([]FileEntry, error) {
	return compound[[]FileEntry](p, manifest, VarFiles)
}

// Image reads the image description of an annotation document.
func Image(p Provider, doc string) (*ImageInfo, error) {
	return compound[*ImageInfo](p, doc, VarImage)
}

// Bursts reads a burst list (either VarBursts or VarBurstsGRD).
func Bursts(p Provider, doc, name string) (*BurstList, error) {
	return compound[*BurstList](p, doc, name)
}

// OrbitOf reads the orbit state vectors of an annotation document.
func OrbitOf(p Provider, doc string) (*Orbit, error) {
	return compound[*Orbit](p, doc, VarOrbit)
}

// DenoisedOf reads the denoising flag of an annotation document.
func DenoisedOf(p Provider, doc string) (Denoised, error) {
	return compound[Denoised](p, doc, VarDenoised)
}

// FMRates reads the azimuth FM rate list of an annotation document.
func FMRates(p Provider, doc string) (*FMRateList, error) {
	return compound[*FMRateList](p, doc, VarAzimuthFMRate)
}

// DopplerOf reads the Doppler centroid estimates of an annotation document.
func DopplerOf(p Provider, doc string) (*DopplerList, error) {
	return compound[*DopplerList](p, doc, VarDoppler)
}

// Int reads an integer scalar. JSON numbers decode as float64, so both are accepted.
func Int(p Provider, doc, name string) (int, error) {
	v, err := p.Scalar(doc, name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s in %s: got %T: %w", name, doc, v, ErrTypeMismatch)
	}
}

// Times reads an array scalar of timestamps.
func Times(p Provider, doc, name string) ([]time.Time, error) {
	v, err := p.Scalar(doc, name)
	if err != nil {
		return nil, err
	}
	switch ts := v.(type) {
	case []time.Time:
		return ts, nil
	case []any:
		out := make([]time.Time, 0, len(ts))
		for _, item := range ts {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s in %s: element %T: %w", name, doc, item, ErrTypeMismatch)
			}
			t, err := ParseTime(s)
			if err != nil {
				return nil, fmt.Errorf("%s in %s: %w", name, doc, err)
			}
			out = append(out, t)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s in %s: got %T: %w", name, doc, v, ErrTypeMismatch)
	}
}
