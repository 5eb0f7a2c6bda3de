package stac

import (
	"encoding/json"
	"testing"

	gj "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/s1meta/internal/metadata/synth"
	"github.com/robert-malhotra/s1meta/internal/product"
)

func openProduct(t *testing.T, p synth.Product) *product.Meta {
	t.Helper()
	m, err := product.Open(p.Dir, product.WithProvider(synth.Build(p)))
	require.NoError(t, err)
	return m
}

func TestNewProductItem(t *testing.T) {
	m := openProduct(t, synth.Default())

	item, err := NewProductItem(m, "s1a-iw-slc", "http://localhost:8080", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "s1a-iw-slc", item.Id)
	assert.Equal(t, "1.0.0", item.Version)
	assert.Len(t, item.Bbox, 4)

	g, ok := item.Geometry.(*gj.Geometry)
	require.True(t, ok, "geometry should be a GeoJSON geometry")
	assert.True(t, g.IsPolygon())

	assert.Nil(t, item.Properties["datetime"])
	assert.Equal(t, "sentinel-1a", item.Properties["platform"])
	assert.Equal(t, "IW", item.Properties["sar:instrument_mode"])
	assert.Equal(t, []string{"VV"}, item.Properties["sar:polarizations"])
	assert.Equal(t, "SLC", item.Properties["sar:product_type"])
	assert.Equal(t, "descending", item.Properties["sat:orbit_state"])
	assert.Equal(t, "L1", item.Properties["processing:level"])
	assert.NotEmpty(t, item.Properties["s1:coverage"])

	require.Contains(t, item.Assets, "iw1-vv")
	assert.Equal(t, []string{"data"}, item.Assets["iw1-vv"].Roles)
	require.Contains(t, item.Assets, "iw1-vv-annotation")
	assert.Equal(t, "application/xml", item.Assets["iw1-vv-annotation"].Type)

	require.Len(t, item.Links, 3)
	assert.Equal(t, "self", item.Links[0].Rel)
	assert.Equal(t, "http://localhost:8080/products/s1a-iw-slc/stac", item.Links[0].Href)

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"s1a-iw-slc"`)
}

func TestNewProductItemMultidataset(t *testing.T) {
	p := synth.Default()
	p.Subswaths = []string{"IW1", "IW2", "IW3"}
	p.SubswathOffset = 3
	m := openProduct(t, p)
	require.True(t, m.IsMultidataset())

	item, err := NewProductItem(m, "multi", "", "1.0.0")
	require.NoError(t, err)

	assert.NotContains(t, item.Properties, "sat:orbit_state")
	assert.Len(t, item.Properties["s1:subdatasets"], 3)
	assert.Len(t, item.Assets, 12)
	assert.Empty(t, item.Links)

	g, ok := item.Geometry.(*gj.Geometry)
	require.True(t, ok)
	assert.True(t, g.IsMultiPolygon())
}

func TestNewProductItemNil(t *testing.T) {
	_, err := NewProductItem(nil, "x", "", "1.0.0")
	assert.Error(t, err)
}

func TestProcessingLevel(t *testing.T) {
	tests := map[string]string{
		"RAW":  "L0",
		"SLC":  "L1",
		"GRDH": "L1",
		"GRDM": "L1",
		"OCN":  "L2",
		"XXX":  "XXX",
	}
	for in, want := range tests {
		assert.Equal(t, want, processingLevel(in), in)
	}
}

func TestNewItemCollection(t *testing.T) {
	ic := NewItemCollection(nil)
	assert.Equal(t, "FeatureCollection", ic.Type)
	assert.NotNil(t, ic.Features)
	assert.Equal(t, 0, ic.NumberReturned)

	ic.AddLink("self", "http://localhost/products", "application/geo+json")
	assert.Len(t, ic.Links, 1)
}
