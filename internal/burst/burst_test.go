package burst

import (
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/s1meta/internal/geoloc"
	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/metadata/synth"
)

func newSegmenter(t *testing.T, p synth.Product) *Segmenter {
	t.Helper()
	m := synth.Build(p)
	doc := p.Annotation(p.Subswaths[0])
	g, err := geoloc.BuildGrid(m, doc)
	require.NoError(t, err)
	e, err := geoloc.NewEngine(g)
	require.NoError(t, err)
	return New(m, doc, p.ProductType, p.Swath, e)
}

func TestApplicable(t *testing.T) {
	tests := []struct {
		productType, swath string
		want               bool
	}{
		{"SLC", "IW", true},
		{"SLC", "EW", true},
		{"SLC", "WV", false},
		{"GRDH", "IW", false},
		{"GRDM", "EW", false},
	}
	for _, tt := range tests {
		s := New(metadata.NewMemory(), "doc", tt.productType, tt.swath, nil)
		assert.Equal(t, tt.want, s.Applicable(), "%s %s", tt.productType, tt.swath)
	}
}

func TestBurstPartition(t *testing.T) {
	p := synth.Default()
	s := newSegmenter(t, p)

	bursts, err := s.Bursts(false)
	require.NoError(t, err)
	require.Len(t, bursts, p.Bursts)

	next := 0
	for k, b := range bursts {
		assert.Equal(t, k, b.Index)
		assert.Equal(t, next, b.FirstLine, "burst %d starts where the previous ended", k)
		assert.GreaterOrEqual(t, b.LastLine, b.FirstLine)
		assert.Equal(t, p.BurstStart(k), b.AzimuthTime)
		next = b.LastLine + 1
	}
	assert.Equal(t, p.Lines, next, "bursts cover every image line")

	for k, b := range bursts {
		assert.Equal(t, k*p.LinesPerBurst, b.FirstLine)
		assert.Equal(t, (k+1)*p.LinesPerBurst-1, b.LastLine)
	}
}

func TestBurstGeometry(t *testing.T) {
	p := synth.Default()
	s := newSegmenter(t, p)

	raw, err := s.Bursts(false)
	require.NoError(t, err)
	valid, err := s.Bursts(true)
	require.NoError(t, err)
	require.Len(t, valid, len(raw))

	for k := range raw {
		rb := raw[k].Image.Bounds()
		vb := valid[k].Image.Bounds()
		assert.Equal(t, float64(p.Pixels), rb.Max.Y)
		assert.Greater(t, vb.Min.X, rb.Min.X, "valid box is inside the raw span")
		assert.Less(t, vb.Max.Y, rb.Max.Y)

		require.Len(t, raw[k].Geometry, 1)
		first := raw[k].Geometry[0][0]
		assert.InDelta(t, p.Lon(0, float64(raw[k].FirstLine), 0), first.X, 1e-3)
		assert.InDelta(t, p.Lat(0, float64(raw[k].FirstLine), 0), first.Y, 1e-3)
	}

	// Cached.
	again, err := s.Bursts(true)
	require.NoError(t, err)
	assert.Same(t, &valid[0], &again[0])
}

func TestAzimuthTimesTOPS(t *testing.T) {
	p := synth.Default()
	s := newSegmenter(t, p)

	azt, err := s.AzimuthTimes()
	require.NoError(t, err)
	require.Len(t, azt, p.Lines)

	for _, line := range []int{0, 1, 1499, 1500, 2999, 3000, 4499} {
		assert.True(t, p.LineTime(float64(line)).Equal(azt[line]), "line %d: %v != %v", line, azt[line], p.LineTime(float64(line)))
	}

	// Bursts overlap in time, so time jumps back at each burst start.
	assert.True(t, azt[1500].Before(azt[1499]))
}

func TestIndicesClampPastGrid(t *testing.T) {
	p := synth.Default()
	p.Lines = p.Bursts*p.LinesPerBurst + 100
	s := newSegmenter(t, p)

	indices, err := s.Indices()
	require.NoError(t, err)
	require.Len(t, indices, p.Lines)
	for _, ind := range indices {
		assert.Less(t, ind, 4, "index within the 4 grid lines")
	}
	assert.Equal(t, 3, indices[p.Lines-1])

	bursts, err := s.Bursts(false)
	require.NoError(t, err)
	require.Len(t, bursts, p.Bursts)
	assert.Equal(t, p.Lines-1, bursts[len(bursts)-1].LastLine)

	azt, err := s.AzimuthTimes()
	require.NoError(t, err)
	assert.InDelta(t, p.LineInterval*100, azt[p.Lines-1].Sub(azt[p.Lines-101]).Seconds(), 1e-6)
}

func TestContinuousScan(t *testing.T) {
	p := synth.GRD()
	s := newSegmenter(t, p)
	require.False(t, s.Applicable())

	indices, err := s.Indices()
	require.NoError(t, err)
	assert.Nil(t, indices)

	bursts, err := s.Bursts(true)
	require.NoError(t, err)
	assert.Empty(t, bursts)

	azt, err := s.AzimuthTimes()
	require.NoError(t, err)
	require.Len(t, azt, p.Lines)
	for _, line := range []int{0, 777, 8000, p.Lines - 1} {
		diff := azt[line].Sub(p.LineTime(float64(line)))
		assert.LessOrEqual(t, diff.Abs(), time.Microsecond, "line %d", line)
	}
}

func TestNoDeclaredBurst(t *testing.T) {
	p := synth.Default()
	m := synth.Build(p)
	doc := p.Annotation("IW1")
	m.SetScalar(doc, metadata.ScalarNumberOfBursts, 0)

	g, err := geoloc.BuildGrid(m, doc)
	require.NoError(t, err)
	e, err := geoloc.NewEngine(g)
	require.NoError(t, err)
	s := New(m, doc, "SLC", "IW", e)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list.Bursts)

	bursts, err := s.Bursts(false)
	require.NoError(t, err)
	assert.Empty(t, bursts)
}

func TestRect(t *testing.T) {
	r := rect(1, 2, 3, 4)
	assert.Equal(t, geom.Point{X: 1, Y: 2}, r[0][0])
	assert.Equal(t, r[0][0], r[0][4])
	assert.Equal(t, &geom.Bounds{Min: geom.Point{X: 1, Y: 2}, Max: geom.Point{X: 3, Y: 4}}, r.Bounds())
}
