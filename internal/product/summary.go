package product

import (
	"errors"
	"fmt"
)

// Key sets accepted by ToMap.
var (
	MinimalKeys = []string{"ipf", "platform", "swath", "product", "pols"}
	AllKeys     = append(append([]string(nil), MinimalKeys...),
		"name", "short_name", "multidataset",
		"start_date", "stop_date",
		"footprint", "coverage", "cross_antemeridian",
		"pixel_line_m", "pixel_sample_m",
		"orbit_pass", "platform_heading",
		"rasters",
	)
)

// ToMap returns the requested attributes. keys may name attributes or the
// sets "minimal" and "all"; no key means "minimal". Attributes that do not
// apply to a multidataset map to nil.
func (m *Meta) ToMap(keys ...string) (map[string]any, error) {
	if len(keys) == 0 {
		keys = []string{"minimal"}
	}
	var expanded []string
	for _, k := range keys {
		switch k {
		case "minimal":
			expanded = append(expanded, MinimalKeys...)
		case "all":
			expanded = append(expanded, AllKeys...)
		default:
			expanded = append(expanded, k)
		}
	}

	out := make(map[string]any, len(expanded))
	for _, k := range expanded {
		v, err := m.attribute(k)
		if errors.Is(err, ErrUnsupportedOperation) {
			v, err = nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (m *Meta) attribute(key string) (any, error) {
	switch key {
	case "ipf":
		return m.IPF(), nil
	case "platform":
		return m.Platform(), nil
	case "swath":
		return m.Swath(), nil
	case "product":
		return m.ProductType(), nil
	case "pols":
		return m.Pols(), nil
	case "name":
		return m.Name(), nil
	case "short_name":
		return m.id.ShortName(), nil
	case "multidataset":
		return m.multi, nil
	case "start_date":
		return m.StartDate()
	case "stop_date":
		return m.StopDate()
	case "footprint":
		return m.Footprint()
	case "coverage":
		return m.Coverage()
	case "cross_antemeridian":
		return m.CrossAntemeridian()
	case "pixel_line_m":
		return m.PixelLineM()
	case "pixel_sample_m":
		return m.PixelSampleM()
	case "orbit_pass":
		return m.OrbitPass()
	case "platform_heading":
		return m.PlatformHeading()
	case "rasters":
		return m.Rasters(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}
