package stac

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/product"
	"github.com/robert-malhotra/s1meta/pkg/geojson"
)

// NewProductItem returns the STAC item of an opened product. id is the
// catalog id of the product; links are omitted when baseURL is empty.
func NewProductItem(m *product.Meta, id, baseURL, version string) (*gostac.Item, error) {
	if m == nil {
		return nil, fmt.Errorf("product is nil")
	}

	item := &gostac.Item{
		Version:    version,
		Id:         id,
		Properties: make(map[string]any),
		Assets:     make(map[string]*gostac.Asset),
		Links:      make([]*gostac.Link, 0),
	}

	fp, err := m.Footprint()
	if err != nil {
		return nil, fmt.Errorf("failed to compute footprint: %w", err)
	}
	item.Geometry = geojson.FromPolygonal(fp)
	item.Bbox = geojson.BBox(fp)

	tr, err := m.TimeRange()
	if err != nil {
		return nil, fmt.Errorf("failed to read time range: %w", err)
	}
	// A time range sets datetime to null.
	item.Properties["datetime"] = nil
	item.Properties["start_datetime"] = tr.Start
	item.Properties["end_datetime"] = tr.Stop

	item.Properties["platform"] = strings.ToLower(m.Platform())
	item.Properties["constellation"] = "sentinel-1"
	item.Properties["instruments"] = []string{"c-sar"}

	// SAR extension
	item.Properties["sar:instrument_mode"] = m.Swath()
	item.Properties["sar:frequency_band"] = "C"
	item.Properties["sar:polarizations"] = strings.Fields(m.Pols())
	item.Properties["sar:product_type"] = m.ProductType()

	// Satellite extension, per dataset only
	if pass, err := m.OrbitPass(); err == nil {
		item.Properties["sat:orbit_state"] = strings.ToLower(pass)
	} else if !errors.Is(err, product.ErrUnsupportedOperation) {
		return nil, fmt.Errorf("failed to read orbit: %w", err)
	}

	// Processing extension
	item.Properties["processing:level"] = processingLevel(m.ProductType())
	item.Properties["processing:software"] = map[string]string{"Sentinel-1 IPF": m.IPF()}

	item.Properties["s1:dataset"] = m.Identity().ShortName()
	if m.IsMultidataset() {
		names := make([]string, 0)
		for _, sd := range m.Subdatasets() {
			names = append(names, sd.Name)
		}
		item.Properties["s1:subdatasets"] = names
	} else if coverage, err := m.Coverage(); err == nil {
		item.Properties["s1:coverage"] = coverage
	}

	files := m.Files()
	if m.IsMultidataset() {
		files = m.SafeFiles()
	}
	addAssets(item, m.Identity().Path, files)
	addLinks(item, baseURL)

	return item, nil
}

// processingLevel maps a Sentinel-1 product type to a processing level.
func processingLevel(productType string) string {
	switch {
	case productType == "RAW":
		return "L0"
	case productType == "SLC", strings.HasPrefix(productType, "GRD"):
		return "L1"
	case productType == "OCN":
		return "L2"
	}
	return productType
}

// addAssets adds the annotation and measurement files of each dataset.
func addAssets(item *gostac.Item, root string, files []metadata.FileEntry) {
	for _, f := range files {
		key := strings.ToLower(f.DSID + "-" + f.Polarization)
		if f.Measurement != "" {
			item.Assets[key] = &gostac.Asset{
				Href:  filepath.Join(root, f.Measurement),
				Title: fmt.Sprintf("%s %s measurement", f.DSID, f.Polarization),
				Type:  "image/tiff; application=geotiff",
				Roles: []string{"data"},
			}
		}
		if f.Annotation != "" {
			item.Assets[key+"-annotation"] = &gostac.Asset{
				Href:  filepath.Join(root, f.Annotation),
				Title: fmt.Sprintf("%s %s annotation", f.DSID, f.Polarization),
				Type:  "application/xml",
				Roles: []string{"metadata"},
			}
		}
		if f.Calibration != "" {
			item.Assets[key+"-calibration"] = &gostac.Asset{
				Href:  filepath.Join(root, f.Calibration),
				Title: fmt.Sprintf("%s %s calibration", f.DSID, f.Polarization),
				Type:  "application/xml",
				Roles: []string{"metadata"},
			}
		}
		if f.Noise != "" {
			item.Assets[key+"-noise"] = &gostac.Asset{
				Href:  filepath.Join(root, f.Noise),
				Title: fmt.Sprintf("%s %s noise", f.DSID, f.Polarization),
				Type:  "application/xml",
				Roles: []string{"metadata"},
			}
		}
	}
}

// addLinks adds self and root links to the item.
func addLinks(item *gostac.Item, baseURL string) {
	if baseURL == "" {
		return
	}
	item.Links = append(item.Links, &gostac.Link{
		Rel:  "self",
		Href: fmt.Sprintf("%s/products/%s/stac", baseURL, item.Id),
		Type: "application/geo+json",
	})
	item.Links = append(item.Links, &gostac.Link{
		Rel:  "parent",
		Href: baseURL + "/products",
		Type: "application/geo+json",
	})
	item.Links = append(item.Links, &gostac.Link{
		Rel:  "root",
		Href: baseURL,
		Type: "application/json",
	})
}
