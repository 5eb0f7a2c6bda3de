// Package product opens Sentinel-1 SAFE products and exposes their footprint,
// acquisition geometry, bursts and masks.
//
// A product directory holds one or more datasets (sub-swaths of a TOPS SLC,
// or the single image of a GRD). Opening the product path alone yields a
// multidataset Meta when several datasets exist; opening
// "SENTINEL1_DS:<path>:<dsid>" yields a single dataset Meta.
//
// A Meta computes everything lazily and keeps it. It is not safe for
// concurrent use.
package product

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/geom"

	"github.com/robert-malhotra/s1meta/internal/burst"
	"github.com/robert-malhotra/s1meta/internal/geoloc"
	"github.com/robert-malhotra/s1meta/internal/mask"
	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/metrics"
)

// maxDepth bounds multidataset nesting. Sub-datasets of a SAFE product are
// always concrete, so one level is the norm.
const maxDepth = 2

// Subdataset is one dataset of a multidataset product.
type Subdataset struct {
	Name      string
	Footprint geom.Polygon
}

// TimeRange is the acquisition time span.
type TimeRange struct {
	Start time.Time
	Stop  time.Time
}

// Option configures Open.
type Option func(*settings)

type settings struct {
	provider metadata.Provider
	logger   *slog.Logger
}

// WithProvider sets the metadata provider. By default the bundle
// metadata.BundleName in the product directory is loaded.
func WithProvider(p metadata.Provider) Option {
	return func(s *settings) { s.provider = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Meta is an opened product or dataset.
type Meta struct {
	id       Identity
	provider metadata.Provider
	cfg      settings
	logger   *slog.Logger

	attrs     *metadata.SafeAttributes
	safeFiles []metadata.FileEntry
	files     []metadata.FileEntry

	multi       bool
	subdatasets []Subdataset
	children    []*Meta
	ancestors   []string

	footprint geom.Polygon
	timeRange *TimeRange
	grid      *geoloc.Grid
	engine    *geoloc.Engine
	segmenter *burst.Segmenter
	masks     *mask.Engine
	rasters   map[string]Raster
}

// Open opens a product path or a dataset name.
func Open(name string, opts ...Option) (*Meta, error) {
	cfg := settings{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	return open(name, cfg, nil)
}

func open(name string, cfg settings, ancestors []string) (*Meta, error) {
	id, err := ParseIdentity(name)
	if err != nil {
		return nil, err
	}
	if cfg.provider == nil {
		b, err := metadata.LoadBundle(filepath.Join(id.Path, metadata.BundleName))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", id.Path, err)
		}
		cfg.provider = b
	}

	attrs, err := metadata.SafeAttrs(cfg.provider, id.Manifest())
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest attributes of %s: %w", id.SAFE, err)
	}
	safeFiles, err := metadata.Files(cfg.provider, id.Manifest())
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest files of %s: %w", id.SAFE, err)
	}
	safeFiles = sortByPolarization(safeFiles, attrs.Polarizations)

	dsids := datasetIDs(safeFiles)
	if id.DSID == "" && len(dsids) == 1 {
		id = id.WithDSID(dsids[0])
	}

	for _, a := range ancestors {
		if a == id.Name() {
			return nil, fmt.Errorf("%w: %s resolves to itself", ErrCyclicProduct, id.ShortName())
		}
	}
	if len(ancestors) > maxDepth {
		return nil, fmt.Errorf("%w: %s nested %d levels deep", ErrCyclicProduct, id.ShortName(), len(ancestors))
	}

	m := &Meta{
		id:        id,
		provider:  cfg.provider,
		cfg:       cfg,
		logger:    cfg.logger,
		attrs:     attrs,
		safeFiles: safeFiles,
		ancestors: append(append([]string(nil), ancestors...), id.Name()),
		rasters:   DefaultRasters(),
	}
	for _, f := range safeFiles {
		if f.DSID == id.DSID {
			m.files = append(m.files, f)
		}
	}

	kind := "single"
	if len(m.files) == 0 {
		kind = "multi"
		m.multi = true
		if err := m.resolveSubdatasets(dsids); err != nil {
			return nil, err
		}
	}
	m.masks = m.newMaskEngine()

	metrics.ProductOpened(kind)
	m.logger.Debug("opened product",
		"name", id.ShortName(),
		"kind", kind,
		"files", len(m.files),
		"subdatasets", len(m.subdatasets),
	)
	return m, nil
}

// resolveSubdatasets pairs each sub-dataset with a footprint. Manifest
// footprints are used when there is exactly one per sub-dataset; otherwise
// every sub-dataset is opened and asked for its own.
func (m *Meta) resolveSubdatasets(dsids []string) error {
	if len(m.attrs.Footprints) == len(dsids) {
		for i, dsid := range dsids {
			m.subdatasets = append(m.subdatasets, Subdataset{
				Name:      m.id.WithDSID(dsid).Name(),
				Footprint: m.attrs.Footprints[i],
			})
		}
		return nil
	}

	m.logger.Info("opening sub-datasets to compute footprints",
		"name", m.id.ShortName(),
		"error", fmt.Errorf("%w: %d footprints for %d sub-datasets", ErrAmbiguousFootprints, len(m.attrs.Footprints), len(dsids)),
	)
	children, err := m.openChildren(dsids)
	if err != nil {
		return err
	}
	for _, child := range children {
		fp, err := child.Footprint()
		if err != nil {
			return fmt.Errorf("failed to read footprint of %s: %w", child.id.ShortName(), err)
		}
		m.subdatasets = append(m.subdatasets, Subdataset{Name: child.id.Name(), Footprint: fp})
	}
	return nil
}

func (m *Meta) openChildren(dsids []string) ([]*Meta, error) {
	if m.children != nil {
		return m.children, nil
	}
	cfg := m.cfg
	cfg.provider = m.provider
	children := make([]*Meta, 0, len(dsids))
	for _, dsid := range dsids {
		child, err := open(m.id.WithDSID(dsid).Name(), cfg, m.ancestors)
		if err != nil {
			return nil, fmt.Errorf("failed to open sub-dataset %s: %w", dsid, err)
		}
		children = append(children, child)
	}
	m.children = children
	return children, nil
}

// datasetIDs returns the distinct dataset ids in declared order.
func datasetIDs(files []metadata.FileEntry) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range files {
		if !seen[f.DSID] {
			seen[f.DSID] = true
			out = append(out, f.DSID)
		}
	}
	return out
}

// sortByPolarization orders files by the manifest polarization order,
// keeping the declared order otherwise.
func sortByPolarization(files []metadata.FileEntry, pols []string) []metadata.FileEntry {
	rank := make(map[string]int, len(pols))
	for i, p := range pols {
		rank[strings.ToUpper(p)] = i
	}
	out := append([]metadata.FileEntry(nil), files...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, ok := rank[strings.ToUpper(out[i].Polarization)]
		if !ok {
			ri = len(pols)
		}
		rj, ok := rank[strings.ToUpper(out[j].Polarization)]
		if !ok {
			rj = len(pols)
		}
		return ri < rj
	})
	return out
}

// Identity returns the dataset identity.
func (m *Meta) Identity() Identity {
	return m.id
}

// Name is the full dataset name.
func (m *Meta) Name() string {
	return m.id.Name()
}

// IsMultidataset reports whether the Meta spans several datasets.
func (m *Meta) IsMultidataset() bool {
	return m.multi
}

// Files returns the files of this dataset, with paths relative to the
// product directory. It is empty for a multidataset.
func (m *Meta) Files() []metadata.FileEntry {
	return append([]metadata.FileEntry(nil), m.files...)
}

// SafeFiles returns every file of the product.
func (m *Meta) SafeFiles() []metadata.FileEntry {
	return append([]metadata.FileEntry(nil), m.safeFiles...)
}

// Subdatasets returns the sub-datasets of a multidataset, in declared
// order.
func (m *Meta) Subdatasets() []Subdataset {
	return append([]Subdataset(nil), m.subdatasets...)
}

// HaveChild reports whether name is a sub-dataset, given either as a full
// or a short dataset name.
func (m *Meta) HaveChild(name string) bool {
	for _, sd := range m.subdatasets {
		id, err := ParseIdentity(sd.Name)
		if err != nil {
			continue
		}
		if name == sd.Name || name == id.ShortName() {
			return true
		}
	}
	return false
}

// Children opens the sub-datasets of a multidataset.
func (m *Meta) Children() ([]*Meta, error) {
	if !m.multi {
		return nil, nil
	}
	dsids := make([]string, len(m.subdatasets))
	for i, sd := range m.subdatasets {
		id, err := ParseIdentity(sd.Name)
		if err != nil {
			return nil, err
		}
		dsids[i] = id.DSID
	}
	return m.openChildren(dsids)
}

// annotation is the annotation document of the first polarization.
func (m *Meta) annotation() (string, error) {
	if m.multi {
		return "", fmt.Errorf("%s: %w", m.id.ShortName(), ErrUnsupportedOperation)
	}
	return filepath.Join(m.id.Path, m.files[0].Annotation), nil
}

// Platform is the mission and satellite, e.g. "SENTINEL-1A".
func (m *Meta) Platform() string {
	return m.attrs.Mission + m.attrs.Satellite
}

// Swath is the swath type: "IW", "EW", "SM" or "WV".
func (m *Meta) Swath() string {
	return m.attrs.SwathType
}

// Pols returns the polarizations, space separated.
func (m *Meta) Pols() string {
	return strings.Join(m.attrs.Polarizations, " ")
}

// IPF is the processor version.
func (m *Meta) IPF() string {
	return m.attrs.IPFVersion
}

// ProductType is the product type taken from the SAFE name.
func (m *Meta) ProductType() string {
	return m.id.ProductType
}

// Grid returns the geolocation grid.
func (m *Meta) Grid() (*geoloc.Grid, error) {
	if m.grid != nil {
		return m.grid, nil
	}
	doc, err := m.annotation()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	g, err := geoloc.BuildGrid(m.provider, doc)
	metrics.ObserveGridBuild(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to build geolocation grid of %s: %w", m.id.ShortName(), err)
	}
	m.grid = g
	return g, nil
}

// Engine returns the coordinate transform engine.
func (m *Meta) Engine() (*geoloc.Engine, error) {
	if m.engine != nil {
		return m.engine, nil
	}
	g, err := m.Grid()
	if err != nil {
		return nil, err
	}
	e, err := geoloc.NewEngine(g)
	if err != nil {
		return nil, err
	}
	m.engine = e
	return e, nil
}

// Footprint is the lon/lat footprint. For a multidataset it is the union of
// the sub-dataset footprints.
func (m *Meta) Footprint() (geom.Polygon, error) {
	if m.footprint != nil {
		return m.footprint, nil
	}
	if m.multi {
		var acc geom.Polygon
		for _, sd := range m.subdatasets {
			if len(acc) == 0 {
				acc = sd.Footprint
				continue
			}
			acc = acc.Union(sd.Footprint).(geom.Polygon)
		}
		if acc == nil {
			acc = geom.Polygon{}
		}
		m.footprint = acc
		return acc, nil
	}
	g, err := m.Grid()
	if err != nil {
		return nil, err
	}
	m.footprint = g.Footprint()
	return m.footprint, nil
}

// Coverage is the approximate size of the footprint.
func (m *Meta) Coverage() (string, error) {
	g, err := m.Grid()
	if err != nil {
		return "", err
	}
	return g.Coverage(), nil
}

// CrossAntemeridian reports whether the footprint crosses the antemeridian.
func (m *Meta) CrossAntemeridian() (bool, error) {
	if !m.multi {
		g, err := m.Grid()
		if err != nil {
			return false, err
		}
		return g.CrossAntemeridian(), nil
	}
	fp, err := m.Footprint()
	if err != nil || len(fp) == 0 {
		return false, err
	}
	b := fp.Bounds()
	return b.Max.X-b.Min.X > 180, nil
}

// TimeRange is the span of the first and last image lines. For a
// multidataset the manifest start and stop dates are used.
func (m *Meta) TimeRange() (TimeRange, error) {
	if m.timeRange != nil {
		return *m.timeRange, nil
	}
	if m.multi {
		m.timeRange = &TimeRange{Start: m.attrs.StartDate, Stop: m.attrs.StopDate}
		return *m.timeRange, nil
	}
	doc, err := m.annotation()
	if err != nil {
		return TimeRange{}, err
	}
	times, err := metadata.Times(m.provider, doc, metadata.ScalarLineTimeRange)
	if err != nil {
		return TimeRange{}, fmt.Errorf("failed to read line time range: %w", err)
	}
	if len(times) == 0 {
		return TimeRange{}, fmt.Errorf("%s: empty line time range: %w", m.id.ShortName(), metadata.ErrNotFound)
	}
	tr := TimeRange{Start: times[0], Stop: times[0]}
	for _, t := range times[1:] {
		if t.Before(tr.Start) {
			tr.Start = t
		}
		if t.After(tr.Stop) {
			tr.Stop = t
		}
	}
	m.timeRange = &tr
	return tr, nil
}

// StartDate is the start of the time range.
func (m *Meta) StartDate() (time.Time, error) {
	tr, err := m.TimeRange()
	return tr.Start, err
}

// StopDate is the end of the time range.
func (m *Meta) StopDate() (time.Time, error) {
	tr, err := m.TimeRange()
	return tr.Stop, err
}

// Image returns the image description.
func (m *Meta) Image() (*metadata.ImageInfo, error) {
	doc, err := m.annotation()
	if err != nil {
		return nil, err
	}
	return metadata.Image(m.provider, doc)
}

// PixelLineM is the ground pixel spacing along lines, in meters.
func (m *Meta) PixelLineM() (float64, error) {
	img, err := m.Image()
	if err != nil {
		return 0, err
	}
	return img.GroundPixelSpacing[0], nil
}

// PixelSampleM is the ground pixel spacing along samples, in meters.
func (m *Meta) PixelSampleM() (float64, error) {
	img, err := m.Image()
	if err != nil {
		return 0, err
	}
	return img.GroundPixelSpacing[1], nil
}

// Orbit returns the orbit state vectors.
func (m *Meta) Orbit() (*metadata.Orbit, error) {
	doc, err := m.annotation()
	if err != nil {
		return nil, err
	}
	return metadata.OrbitOf(m.provider, doc)
}

// OrbitPass is "Ascending" or "Descending".
func (m *Meta) OrbitPass() (string, error) {
	o, err := m.Orbit()
	if err != nil {
		return "", err
	}
	return o.Pass, nil
}

// PlatformHeading is the platform heading, in degrees.
func (m *Meta) PlatformHeading() (float64, error) {
	o, err := m.Orbit()
	if err != nil {
		return 0, err
	}
	return o.PlatformHeading, nil
}

// AzimuthFMRate returns the azimuth FM rate estimates of the first
// annotation document. History carries the provenance of the records.
func (m *Meta) AzimuthFMRate() (*metadata.FMRateList, error) {
	doc, err := m.annotation()
	if err != nil {
		return nil, err
	}
	fm, err := metadata.FMRates(m.provider, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read azimuth FM rates: %w", err)
	}
	out := *fm
	if out.History, err = m.provider.Describe(doc, metadata.VarAzimuthFMRate); err != nil {
		return nil, err
	}
	return &out, nil
}

// DopplerEstimate returns the Doppler centroid estimates of the first
// annotation document.
func (m *Meta) DopplerEstimate() (*metadata.DopplerList, error) {
	doc, err := m.annotation()
	if err != nil {
		return nil, err
	}
	dc, err := metadata.DopplerOf(m.provider, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read Doppler estimates: %w", err)
	}
	out := *dc
	if out.History, err = m.provider.Describe(doc, metadata.VarDoppler); err != nil {
		return nil, err
	}
	return &out, nil
}

// Denoised tells, per polarization, whether the image was denoised at L1.
func (m *Meta) Denoised() (map[string]bool, error) {
	if m.multi {
		return nil, fmt.Errorf("%s: %w", m.id.ShortName(), ErrUnsupportedOperation)
	}
	out := make(map[string]bool, len(m.files))
	for _, f := range m.files {
		d, err := metadata.DenoisedOf(m.provider, filepath.Join(m.id.Path, f.Annotation))
		if err != nil {
			return nil, fmt.Errorf("failed to read denoising flag: %w", err)
		}
		pol := d.Polarization
		if pol == "" {
			pol = f.Polarization
		}
		out[pol] = d.Value
	}
	return out, nil
}

// Segmenter returns the burst segmenter.
func (m *Meta) Segmenter() (*burst.Segmenter, error) {
	if m.segmenter != nil {
		return m.segmenter, nil
	}
	doc, err := m.annotation()
	if err != nil {
		return nil, err
	}
	e, err := m.Engine()
	if err != nil {
		return nil, err
	}
	m.segmenter = burst.New(m.provider, doc, m.id.ProductType, m.attrs.SwathType, e, burst.WithLogger(m.logger))
	return m.segmenter, nil
}

// Bursts returns the bursts of a split acquisition. Other products have no
// burst. With onlyValid, burst boxes are the declared valid areas.
func (m *Meta) Bursts(onlyValid bool) ([]burst.Burst, error) {
	s, err := m.Segmenter()
	if err != nil {
		return nil, err
	}
	return s.Bursts(onlyValid)
}

// SubswathBursts returns the bursts of every dataset, tagged with their
// dataset id. A single dataset returns its own bursts.
func (m *Meta) SubswathBursts(onlyValid bool) ([]burst.Burst, error) {
	metas := []*Meta{m}
	if m.multi {
		children, err := m.Children()
		if err != nil {
			return nil, err
		}
		metas = children
	}
	var out []burst.Burst
	for _, child := range metas {
		bursts, err := child.Bursts(onlyValid)
		if err != nil {
			return nil, err
		}
		for _, b := range bursts {
			b.Subswath = child.id.DSID
			out = append(out, b)
		}
	}
	return out, nil
}

// AzimuthTimes returns the azimuth time of every image line.
func (m *Meta) AzimuthTimes() ([]time.Time, error) {
	s, err := m.Segmenter()
	if err != nil {
		return nil, err
	}
	return s.AzimuthTimes()
}

func (m *Meta) newMaskEngine(opts ...mask.Option) *mask.Engine {
	footprint := func() (geom.Polygonal, error) {
		fp, err := m.Footprint()
		if err != nil {
			return nil, err
		}
		return fp, nil
	}
	return mask.NewEngine(footprint, append([]mask.Option{mask.WithLogger(m.logger)}, opts...)...)
}

// MaskNames returns the defined mask names.
func (m *Meta) MaskNames() []string {
	return m.masks.Names()
}

// SetMask defines a mask for this Meta only.
func (m *Meta) SetMask(name string, src mask.Source) error {
	return m.masks.Set(name, src)
}

// Mask returns the mask geometry clipped to the footprint.
func (m *Meta) Mask(name string) (geom.Polygon, error) {
	return m.masks.Geometry(name)
}

// MaskDescription describes the source of a mask.
func (m *Meta) MaskDescription(name string) (string, error) {
	return m.masks.Describe(name)
}

// MaskState returns the resolution state of a mask.
func (m *Meta) MaskState(name string) (mask.State, error) {
	return m.masks.State(name)
}

func (m *Meta) String() string {
	kind := "single dataset"
	if m.multi {
		kind = fmt.Sprintf("multidataset of %d", len(m.subdatasets))
	}
	return fmt.Sprintf("Meta(%s, %s)", m.id.ShortName(), kind)
}
