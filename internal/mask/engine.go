// Package mask intersects named reference geometries (land, ice, user
// shapefiles) with a product footprint.
//
// Definitions are either process-wide defaults (RegisterDefault) or local to
// one Engine (Engine.Set). Derived geometry is cached per Engine and per name:
//
//	Unresolved -> FeatureLoaded -> Intersected -> Final
//
// Each step runs at most once; an empty intersection is cached as an empty,
// non-nil polygon.
package mask

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/ctessum/geom"

	"github.com/robert-malhotra/s1meta/internal/metrics"
)

var (
	// ErrInvalidMaskDefinition is returned for a source that is neither a
	// feature nor a readable vector file.
	ErrInvalidMaskDefinition = errors.New("invalid mask definition")

	// ErrUnknownMask is returned for a name with no definition.
	ErrUnknownMask = errors.New("unknown mask")
)

// State is the resolution state of a named mask.
type State int

const (
	Unresolved State = iota
	FeatureLoaded
	Intersected
	Final
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case FeatureLoaded:
		return "feature_loaded"
	case Intersected:
		return "intersected"
	case Final:
		return "final"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type entry struct {
	source       Source
	feature      *Feature
	intersecting []geom.Polygonal
	geometry     geom.Polygon
	state        State
}

// FootprintFunc returns the lon/lat footprint masks are intersected with.
type FootprintFunc func() (geom.Polygonal, error)

// Engine resolves masks against one footprint. It is not safe for
// concurrent use.
type Engine struct {
	footprint  FootprintFunc
	entries    map[string]*entry
	logger     *slog.Logger
	noDefaults bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithoutDefaults starts the engine with no definition instead of a copy of
// the defaults.
func WithoutDefaults() Option {
	return func(e *Engine) { e.noDefaults = true }
}

// NewEngine returns an engine holding a copy of the default definitions.
// footprint is called at most once, when a mask is first resolved.
func NewEngine(footprint FootprintFunc, opts ...Option) *Engine {
	e := &Engine{
		entries: make(map[string]*entry),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	var fp geom.Polygonal
	e.footprint = func() (geom.Polygonal, error) {
		if fp != nil {
			return fp, nil
		}
		p, err := footprint()
		if err != nil {
			return nil, err
		}
		fp = p
		return fp, nil
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.noDefaults {
		for name, src := range Defaults() {
			e.entries[name] = &entry{source: src}
		}
	}
	return e
}

// Set defines or redefines a mask for this engine only, dropping any
// geometry cached under that name.
func (e *Engine) Set(name string, src Source) error {
	if name == "" {
		return fmt.Errorf("%w: empty mask name", ErrInvalidMaskDefinition)
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("mask %q: %w", name, err)
	}
	e.entries[name] = &entry{source: src}
	return nil
}

// Names returns the defined mask names, sorted.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.entries))
	for name := range e.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns a copy of the mask definitions.
func (e *Engine) Definitions() map[string]Source {
	out := make(map[string]Source, len(e.entries))
	for name, ent := range e.entries {
		out[name] = ent.source
	}
	return out
}

// Resolved reports whether any mask has cached derived state.
func (e *Engine) Resolved() bool {
	for _, ent := range e.entries {
		if ent.state != Unresolved {
			return true
		}
	}
	return false
}

func (e *Engine) entry(name string) (*entry, error) {
	ent, ok := e.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMask, name)
	}
	return ent, nil
}

// State returns the resolution state of a mask.
func (e *Engine) State(name string) (State, error) {
	ent, err := e.entry(name)
	if err != nil {
		return Unresolved, err
	}
	return ent.state, nil
}

// Describe returns the description of a mask source.
func (e *Engine) Describe(name string) (string, error) {
	ent, err := e.entry(name)
	if err != nil {
		return "", err
	}
	return ent.source.Describe(), nil
}

// Feature returns the loaded mask feature. File sources keep only the
// geometries overlapping the footprint.
func (e *Engine) Feature(name string) (*Feature, error) {
	ent, err := e.entry(name)
	if err != nil {
		return nil, err
	}
	if ent.state >= FeatureLoaded {
		return ent.feature, nil
	}

	f := ent.source.Feature
	if f == nil {
		fp, err := e.footprint()
		if err != nil {
			return nil, err
		}
		f, err = loadFile(name, ent.source.Path, fp)
		if err != nil {
			return nil, fmt.Errorf("mask %q: %w", name, err)
		}
		e.logger.Debug("loaded mask file",
			"mask", name,
			"path", ent.source.Path,
			"geometries", f.Len(),
		)
	}
	ent.feature = f
	ent.state = FeatureLoaded
	metrics.MaskResolved(FeatureLoaded.String())
	return f, nil
}

// IntersectingGeometries returns the mask geometries whose bounds overlap
// the footprint bounds.
func (e *Engine) IntersectingGeometries(name string) ([]geom.Polygonal, error) {
	f, err := e.Feature(name)
	if err != nil {
		return nil, err
	}
	ent := e.entries[name]
	if ent.state >= Intersected {
		return ent.intersecting, nil
	}
	fp, err := e.footprint()
	if err != nil {
		return nil, err
	}
	ent.intersecting = f.IntersectingGeometries(fp.Bounds())
	ent.state = Intersected
	metrics.MaskResolved(Intersected.String())
	return ent.intersecting, nil
}

// Geometry returns the union of the intersecting geometries clipped to the
// footprint. The result is cached: later calls return the same polygon.
// No intersection yields an empty, non-nil polygon.
func (e *Engine) Geometry(name string) (geom.Polygon, error) {
	hits, err := e.IntersectingGeometries(name)
	if err != nil {
		return nil, err
	}
	ent := e.entries[name]
	if ent.state == Final {
		return ent.geometry, nil
	}
	fp, err := e.footprint()
	if err != nil {
		return nil, err
	}

	result := geom.Polygon{}
	if u := union(hits); len(u) > 0 {
		if clipped := u.Intersection(fp).(geom.Polygon); len(clipped) > 0 {
			result = clipped
		}
	}
	ent.geometry = result
	ent.state = Final
	metrics.MaskResolved(Final.String())
	e.logger.Debug("resolved mask",
		"mask", name,
		"intersecting", len(hits),
		"empty", len(result) == 0,
	)
	return result, nil
}

func union(geoms []geom.Polygonal) geom.Polygon {
	var acc geom.Polygon
	for _, g := range geoms {
		for _, p := range g.Polygons() {
			if len(acc) == 0 {
				acc = p
				continue
			}
			acc = acc.Union(p).(geom.Polygon)
		}
	}
	return acc
}
