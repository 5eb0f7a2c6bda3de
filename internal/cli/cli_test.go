package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/s1meta/internal/metadata/synth"
	"github.com/robert-malhotra/s1meta/internal/product"
)

// run executes the CLI against a synthetic product.
func run(t *testing.T, p synth.Product, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(&out, io.Discard, WithProvider(synth.Build(p)))
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func multi() synth.Product {
	p := synth.Default()
	p.Subswaths = []string{"IW1", "IW2", "IW3"}
	p.SubswathOffset = 3
	return p
}

func TestInfo(t *testing.T) {
	p := synth.Default()

	out, err := run(t, p, "info", p.Dir)
	require.NoError(t, err)
	var props map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.Equal(t, "IW", props["swath"])
	assert.Equal(t, "SLC", props["product"])
	assert.Len(t, props, 5)

	out, err = run(t, p, "info", p.Dir, "--keys", "footprint,multidataset")
	require.NoError(t, err)
	props = nil
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.True(t, strings.HasPrefix(props["footprint"].(string), "POLYGON"))
	assert.Equal(t, false, props["multidataset"])

	_, err = run(t, p, "info", p.Dir, "--keys", "colour")
	assert.True(t, errors.Is(err, product.ErrUnknownKey))
}

func TestInfoMultidataset(t *testing.T) {
	p := multi()
	out, err := run(t, p, "info", p.Dir, "--keys", "all")
	require.NoError(t, err)

	var props map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.Equal(t, true, props["multidataset"])
	assert.Nil(t, props["coverage"])
	assert.Len(t, props["subdatasets"], 3)
	assert.True(t, strings.HasPrefix(props["footprint"].(string), "MULTIPOLYGON"))
}

func TestFootprint(t *testing.T) {
	p := synth.Default()

	out, err := run(t, p, "footprint", p.Dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "POLYGON(("))

	out, err = run(t, p, "footprint", p.Dir, "--format", "geojson")
	require.NoError(t, err)
	assert.Contains(t, out, `"Polygon"`)

	_, err = run(t, p, "footprint", p.Dir, "--format", "kml")
	assert.Error(t, err)
}

func TestCoordsRoundTrip(t *testing.T) {
	p := synth.Default()

	out, err := run(t, p, "coords2ll", p.Dir, "--line", "100", "--pixel", "1000")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 5, out)

	out, err = run(t, p, "ll2coords", p.Dir, "--lon", fields[3], "--lat", fields[4])
	require.NoError(t, err)
	back := strings.Fields(out)
	require.Len(t, back, 5, out)
	line, err := strconv.ParseFloat(back[3], 64)
	require.NoError(t, err)
	pixel, err := strconv.ParseFloat(back[4], 64)
	require.NoError(t, err)
	assert.InDelta(t, 100, line, 0.5)
	assert.InDelta(t, 1000, pixel, 0.5)

	_, err = run(t, p, "coords2ll", p.Dir, "--line", "1,2", "--pixel", "1")
	assert.Error(t, err)

	_, err = run(t, p, "coords2ll", p.Dir, "--line", "1")
	assert.Error(t, err, "pixel is required")
}

func TestCoordsMultidataset(t *testing.T) {
	p := multi()
	_, err := run(t, p, "coords2ll", p.Dir, "--line", "1", "--pixel", "1")
	assert.True(t, errors.Is(err, product.ErrUnsupportedOperation))
}

func TestHeading(t *testing.T) {
	p := synth.Default()
	out, err := run(t, p, "heading", p.Dir, "--line", "1000,2000", "--pixel", "5000,5000")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestBursts(t *testing.T) {
	p := synth.Default()
	out, err := run(t, p, "bursts", p.Dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4, "header and three bursts")
	assert.True(t, strings.HasPrefix(lines[1], "IW1"))

	m := multi()
	out, err = run(t, m, "bursts", m.Dir, "--format", "geojson", "--all")
	require.NoError(t, err)
	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Len(t, fc.Features, 9)

	g := synth.GRD()
	out, err = run(t, g, "bursts", g.Dir)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1, "header only")
}

func TestMask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakes.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {}, "geometry": {"type": "Polygon",
    "coordinates": [[[11, 45.2], [11.5, 45.2], [11.5, 45.5], [11, 45.5], [11, 45.2]]]}}]}`), 0o644))

	p := synth.Default()
	out, err := run(t, p, "mask", p.Dir, "--define", "lakes="+path)
	require.NoError(t, err)
	assert.Equal(t, "lakes\t"+path+"\n", out)

	out, err = run(t, p, "mask", p.Dir, "lakes", "--define", "lakes="+path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "POLYGON(("), out)

	out, err = run(t, p, "mask", p.Dir, "lakes", "--define", "lakes="+path, "--format", "geojson")
	require.NoError(t, err)
	var feature struct {
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &feature))
	assert.InDelta(t, 0.15, feature.Properties["area"].(float64), 1e-9)

	_, err = run(t, p, "mask", p.Dir, "oceans")
	assert.Error(t, err)
}
