package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBundle = `{
  "documents": {
    "manifest.safe": {
      "compounds": {
        "safe_attributes": {
          "mission": "SENTINEL-1",
          "satellite": "B",
          "swath_type": "IW",
          "polarizations": ["VV", "VH"],
          "ipf_version": "003.20",
          "start_date": "2020-01-01T10:00:00.000000",
          "stop_date": "2020-01-01T10:00:25.000000",
          "footprints": [[[10, 45], [12, 45], [12, 46], [10, 46], [10, 45]]]
        },
        "files": [
          {"dsid": "IW", "polarization": "VV", "annotation": "annotation/a-vv.xml", "measurement": "measurement/m-vv.tiff"}
        ]
      }
    },
    "annotation/a-vv.xml": {
      "scalars": {
        "annotation.number_of_bursts": 0,
        "annotation.line_time_range": ["2020-01-01T10:00:00.000000", "2020-01-01T10:00:25.000000"]
      },
      "compounds": {
        "longitude": {"lines": [0, 10], "pixels": [0, 5, 10], "values": [[10, 11, 12], [10, 11, 12]]},
        "azimuth_time": {"lines": [0, 10], "pixels": [0, 10], "values": [["2020-01-01T10:00:00.000000", "2020-01-01T10:00:00.000000"], ["2020-01-01T10:00:01.000000", "2020-01-01T10:00:01.000000"]]},
        "image": {"shape": [11, 11], "ground_pixel_spacing": [10, 10], "azimuth_time_interval": 0.1},
        "bursts_grd": {"lines_per_burst": 0, "bursts": []},
        "orbit": {"orbit_pass": "Ascending", "platform_heading": -12.5, "state_vectors": [{"time": "2020-01-01T10:00:00.000000", "position": [1, 2, 3], "velocity": [4, 5, 6]}]},
        "denoised": {"polarization": "VV", "value": true},
        "azimuth_fmrate": [{"azimuth_time": "2020-01-01T10:00:00.000000", "t0": 5.3e-3, "coefficients": [-2300, 450000, -80000000]}],
        "doppler_estimate": [{"azimuth_time": "2020-01-01T10:00:02.000000", "t0": 5.3e-3, "geometry_polynomial": [-12.5, 1000], "data_polynomial": [-20, 2000, 0], "frequencies": [-19.5, -20.1]}],
        "broken": {"lines": [0, 1], "pixels": [0], "values": [[1]]}
      },
      "descriptions": {
        "longitude": "a-vv.xml: geolocationGrid/longitude"
      }
    }
  }
}`

func writeBundle(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "S1B_IW_GRDH_1SDV_test.SAFE")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, BundleName)
	require.NoError(t, os.WriteFile(path, []byte(testBundle), 0o644))
	return path
}

func TestBundleCompounds(t *testing.T) {
	path := writeBundle(t)
	b, err := LoadBundle(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	manifest := filepath.Join(dir, "manifest.safe")
	annotation := filepath.Join(dir, "annotation", "a-vv.xml")

	attrs, err := SafeAttrs(b, manifest)
	require.NoError(t, err)
	assert.Equal(t, "B", attrs.Satellite)
	assert.Equal(t, []string{"VV", "VH"}, attrs.Polarizations)
	require.Len(t, attrs.Footprints, 1)
	assert.Len(t, attrs.Footprints[0][0], 5)
	assert.True(t, attrs.StopDate.Sub(attrs.StartDate) == 25*time.Second)

	files, err := Files(b, manifest)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "IW", files[0].DSID)

	lon, err := Grid(b, annotation, VarLongitude)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10}, lon.Pixels)

	azt, err := TimeGrid(b, annotation, VarAzimuthTime)
	require.NoError(t, err)
	assert.Equal(t, time.Second, azt.Values[1][0].Sub(azt.Values[0][0]))

	img, err := Image(b, annotation)
	require.NoError(t, err)
	assert.Equal(t, [2]int{11, 11}, img.Shape)

	orbit, err := OrbitOf(b, annotation)
	require.NoError(t, err)
	assert.Equal(t, "Ascending", orbit.Pass)
	assert.Len(t, orbit.StateVectors, 1)

	den, err := DenoisedOf(b, annotation)
	require.NoError(t, err)
	assert.True(t, den.Value)

	fm, err := FMRates(b, annotation)
	require.NoError(t, err)
	require.Len(t, fm.Rates, 1)
	assert.Equal(t, [3]float64{-2300, 450000, -80000000}, fm.Rates[0].Coefficients)
	assert.InDelta(t, 5.3e-3, fm.Rates[0].T0, 1e-12)

	dc, err := DopplerOf(b, annotation)
	require.NoError(t, err)
	require.Len(t, dc.Estimates, 1)
	assert.Equal(t, 2*time.Second, dc.Estimates[0].AzimuthTime.Sub(attrs.StartDate))
	assert.Equal(t, []float64{-12.5, 1000}, dc.Estimates[0].GeometryPolynomial)
	assert.Len(t, dc.Estimates[0].DataPolynomial, 3)
	assert.Len(t, dc.Estimates[0].Frequencies, 2)

	grd, err := Bursts(b, annotation, VarBurstsGRD)
	require.NoError(t, err)
	assert.Empty(t, grd.Bursts)
}

func TestBundleScalars(t *testing.T) {
	path := writeBundle(t)
	b, err := LoadBundle(path)
	require.NoError(t, err)

	// Relative document names are accepted too.
	n, err := Int(b, "annotation/a-vv.xml", ScalarNumberOfBursts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	tr, err := Times(b, "annotation/a-vv.xml", ScalarLineTimeRange)
	require.NoError(t, err)
	require.Len(t, tr, 2)
	assert.Equal(t, 25*time.Second, tr[1].Sub(tr[0]))
}

func TestBundleErrors(t *testing.T) {
	path := writeBundle(t)
	b, err := LoadBundle(path)
	require.NoError(t, err)

	_, err = b.Compound("missing.xml", VarLongitude)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = b.Compound("annotation/a-vv.xml", VarLatitude)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = b.Scalar("annotation/a-vv.xml", "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = b.Compound("annotation/a-vv.xml", "broken")
	require.NoError(t, err, "unknown compounds decode generically")

	_, err = Grid(b, "annotation/a-vv.xml", "broken")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	desc, err := b.Describe("annotation/a-vv.xml", VarLongitude)
	require.NoError(t, err)
	assert.Equal(t, "a-vv.xml: geolocationGrid/longitude", desc)

	desc, err = b.Describe("annotation/a-vv.xml", VarImage)
	require.NoError(t, err)
	assert.Equal(t, "a-vv.xml:image", desc)
}

func TestReadBundleInvalid(t *testing.T) {
	_, err := ReadBundle(strings.NewReader(`{"documents": {}}`), "/tmp")
	assert.Error(t, err)

	_, err = ReadBundle(strings.NewReader(`not json`), "/tmp")
	assert.Error(t, err)

	_, err = LoadBundle(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestMemoryProvider(t *testing.T) {
	m := NewMemory()
	m.SetScalar("doc", "count", 3)
	m.SetCompound("doc", VarImage, &ImageInfo{Shape: [2]int{2, 3}}, "doc: image")

	n, err := Int(m, "doc", "count")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	img, err := Image(m, "doc")
	require.NoError(t, err)
	assert.Equal(t, 3, img.Shape[1])

	_, err = Grid(m, "doc", VarImage)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = m.Compound("other", VarImage)
	assert.True(t, errors.Is(err, ErrNotFound))

	desc, err := m.Describe("doc", "count")
	require.NoError(t, err)
	assert.Equal(t, "doc: scalar count", desc)

	assert.Equal(t, 1, m.Documents())
}
