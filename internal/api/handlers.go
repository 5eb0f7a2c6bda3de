package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/go-chi/chi/v5"
	gj "github.com/paulmach/go.geojson"
	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/s1meta/internal/backend"
	"github.com/robert-malhotra/s1meta/internal/config"
	"github.com/robert-malhotra/s1meta/internal/geoloc"
	"github.com/robert-malhotra/s1meta/internal/mask"
	"github.com/robert-malhotra/s1meta/internal/product"
	intstac "github.com/robert-malhotra/s1meta/internal/stac"
	"github.com/robert-malhotra/s1meta/pkg/geojson"
)

// Handlers contains all HTTP handlers of the service.
type Handlers struct {
	cfg     *config.Config
	backend backend.ProductBackend
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(cfg *config.Config, products backend.ProductBackend, logger *slog.Logger) *Handlers {
	return &Handlers{
		cfg:     cfg,
		backend: products,
		logger:  logger,
	}
}

// LandingPage returns the service landing page.
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	landing := intstac.NewLandingPage(
		"s1meta",
		h.cfg.STAC.Title,
		h.cfg.STAC.Description,
		h.cfg.STAC.Version,
		intstac.DefaultConformance(),
	)

	landing.AddLink("self", baseURL+"/", "application/json")
	landing.AddLink("root", baseURL+"/", "application/json")
	landing.AddLink("conformance", baseURL+"/conformance", "application/json")
	landing.AddLink("data", baseURL+"/products", "application/json")
	landing.AddLink("items", baseURL+"/items", "application/geo+json")
	for _, id := range h.backend.IDs() {
		landing.AddLink("item", fmt.Sprintf("%s/products/%s/stac", baseURL, id), "application/geo+json")
	}

	WriteJSON(w, http.StatusOK, landing)
}

// Conformance returns the conformance classes supported by this API.
// GET /conformance
func (h *Handlers) Conformance(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, &intstac.Conformance{
		ConformsTo: intstac.DefaultConformance(),
	})
}

// Health returns a simple health check response.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": len(h.backend.IDs()),
	})
}

// productSummary is one entry of the product listing.
type productSummary struct {
	ID          string         `json:"id"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Name        string         `json:"name"`
	Links       []*gostac.Link `json:"links"`
}

// Products lists the catalog without opening products.
// GET /products
func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	products := make([]productSummary, 0)
	for _, id := range h.backend.IDs() {
		entry, err := h.backend.Entry(id)
		if err != nil {
			h.writeProductError(w, r, err)
			return
		}
		products = append(products, productSummary{
			ID:          entry.ID,
			Title:       entry.Title,
			Description: entry.Description,
			Name:        entry.Name,
			Links: []*gostac.Link{
				{Rel: "self", Href: fmt.Sprintf("%s/products/%s", baseURL, id), Type: "application/json"},
				{Rel: "alternate", Href: fmt.Sprintf("%s/products/%s/stac", baseURL, id), Type: "application/geo+json"},
			},
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"links": []*gostac.Link{
			{Rel: "self", Href: baseURL + "/products", Type: "application/json"},
			{Rel: "root", Href: baseURL + "/", Type: "application/json"},
		},
	})
}

// Product returns every product attribute. Attributes a multidataset cannot
// provide are null.
// GET /products/{productId}
func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	var props map[string]any
	var subdatasets []string
	err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
		var err error
		props, err = m.ToMap("all")
		if err != nil {
			return err
		}
		for _, sd := range m.Subdatasets() {
			subdatasets = append(subdatasets, sd.Name)
		}
		return nil
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	if fp, ok := props["footprint"].(geom.Polygon); ok {
		props["footprint"] = geojson.ToWKT(fp)
	}
	props["id"] = id
	if len(subdatasets) > 0 {
		props["subdatasets"] = subdatasets
	}

	WriteJSON(w, http.StatusOK, props)
}

// Footprint returns the product footprint as a GeoJSON feature.
// GET /products/{productId}/footprint
func (h *Handlers) Footprint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	var feature *gj.Feature
	err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
		fp, err := m.Footprint()
		if err != nil {
			return err
		}
		cross, err := m.CrossAntemeridian()
		if err != nil {
			return err
		}
		feature = geojson.NewFeature(fp, map[string]any{
			"id":                 id,
			"name":               m.Name(),
			"cross_antemeridian": cross,
		})
		return nil
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, feature)
}

// CoordsToLL converts image coordinates to lon/lat.
// GET /products/{productId}/coords2ll?line=..&pixel=..&approx=
func (h *Handlers) CoordsToLL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	lines, err := parseFloats(r, "line")
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	pixels, err := parseFloats(r, "pixel")
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	opt, err := parseApprox(r, false)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}

	var lons, lats []float64
	err = h.backend.With(r.Context(), id, func(m *product.Meta) error {
		e, err := m.Engine()
		if err != nil {
			return err
		}
		lons, lats, err = e.CoordsToLL(lines, pixels, opt)
		return err
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"lon": lons, "lat": lats})
}

// LLToCoords converts lon/lat to image coordinates.
// GET /products/{productId}/ll2coords?lon=..&lat=..&approx=
func (h *Handlers) LLToCoords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	lons, err := parseFloats(r, "lon")
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	lats, err := parseFloats(r, "lat")
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	opt, err := parseApprox(r, false)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}

	var lines, pixels []float64
	err = h.backend.With(r.Context(), id, func(m *product.Meta) error {
		e, err := m.Engine()
		if err != nil {
			return err
		}
		lines, pixels, err = e.LLToCoords(lons, lats, opt)
		return err
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"line": lines, "pixel": pixels})
}

// Heading returns the ground heading at image coordinates.
// GET /products/{productId}/heading?line=..&pixel=..&approx=
func (h *Handlers) Heading(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	lines, err := parseFloats(r, "line")
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	pixels, err := parseFloats(r, "pixel")
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	opt, err := parseApprox(r, true)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}

	var headings []float64
	err = h.backend.With(r.Context(), id, func(m *product.Meta) error {
		e, err := m.Engine()
		if err != nil {
			return err
		}
		headings, err = e.CoordsToHeading(lines, pixels, opt)
		return err
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"heading": headings})
}

// Bursts returns the bursts as a GeoJSON feature collection. A multidataset
// returns the bursts of every sub-swath.
// GET /products/{productId}/bursts?valid=
func (h *Handlers) Bursts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	onlyValid := true
	if v := r.URL.Query().Get("valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteInvalidParameter(w, fmt.Sprintf("invalid valid parameter %q", v))
			return
		}
		onlyValid = b
	}

	fc := gj.NewFeatureCollection()
	err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
		bursts, err := m.SubswathBursts(onlyValid)
		if err != nil {
			return err
		}
		for _, b := range bursts {
			props := map[string]any{
				"index":        b.Index,
				"first_line":   b.FirstLine,
				"last_line":    b.LastLine,
				"azimuth_time": b.AzimuthTime.Format(time.RFC3339Nano),
			}
			if b.Subswath != "" {
				props["subswath"] = b.Subswath
			}
			fc.AddFeature(geojson.NewFeature(b.Geometry, props))
		}
		return nil
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, fc)
}

// maskInfo describes one mask definition.
type maskInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"`
}

// Masks lists the masks defined on a product.
// GET /products/{productId}/masks
func (h *Handlers) Masks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	masks := make([]maskInfo, 0)
	err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
		for _, name := range m.MaskNames() {
			desc, err := m.MaskDescription(name)
			if err != nil {
				return err
			}
			state, err := m.MaskState(name)
			if err != nil {
				return err
			}
			masks = append(masks, maskInfo{Name: name, Description: desc, State: state.String()})
		}
		return nil
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"masks": masks})
}

// Mask returns a mask clipped to the product footprint.
// GET /products/{productId}/masks/{maskName}
func (h *Handlers) Mask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	name := chi.URLParam(r, "maskName")

	var feature *gj.Feature
	err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
		g, err := m.Mask(name)
		if err != nil {
			return err
		}
		desc, err := m.MaskDescription(name)
		if err != nil {
			return err
		}
		feature = geojson.NewFeature(g, map[string]any{
			"name":        name,
			"description": desc,
			"area":        g.Area(),
		})
		return nil
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, feature)
}

// Items returns the STAC items of every product in the catalog.
// GET /items
func (h *Handlers) Items(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	items := make([]*gostac.Item, 0)
	for _, id := range h.backend.IDs() {
		err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
			item, err := intstac.NewProductItem(m, id, baseURL, h.cfg.STAC.Version)
			if err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
		if err != nil {
			h.writeProductError(w, r, err)
			return
		}
	}

	ic := intstac.NewItemCollection(items)
	ic.AddLink("self", baseURL+"/items", "application/geo+json")
	ic.AddLink("root", baseURL+"/", "application/json")
	WriteGeoJSON(w, http.StatusOK, ic)
}

// Item returns the STAC item of a product.
// GET /products/{productId}/stac
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	var item *gostac.Item
	err := h.backend.With(r.Context(), id, func(m *product.Meta) error {
		var err error
		item, err = intstac.NewProductItem(m, id, h.cfg.STAC.BaseURL, h.cfg.STAC.Version)
		return err
	})
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, item)
}

// writeProductError maps core errors to HTTP responses.
func (h *Handlers) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, backend.ErrProductNotFound):
		WriteNotFound(w, "product not found")
	case errors.Is(err, mask.ErrUnknownMask):
		WriteNotFound(w, err.Error())
	case errors.Is(err, product.ErrUnsupportedOperation):
		WriteUnsupported(w, err.Error())
	case errors.Is(err, geoloc.ErrLengthMismatch):
		WriteInvalidParameter(w, err.Error())
	default:
		reqID := GetRequestID(r.Context())
		h.logger.Error("request failed",
			slog.String("request_id", reqID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		WriteInternalErrorWithRequestID(w, "failed to process product", reqID)
	}
}

// parseFloats reads a comma separated list of numbers.
func parseFloats(r *http.Request, name string) ([]float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, fmt.Errorf("missing %s parameter", name)
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q", name, p)
		}
		out[i] = v
	}
	return out, nil
}

// parseApprox reads the approx parameter.
func parseApprox(r *http.Request, def bool) (geoloc.Option, error) {
	approx := def
	if v := r.URL.Query().Get("approx"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid approx parameter %q", v)
		}
		approx = b
	}
	if approx {
		return geoloc.Approx(), nil
	}
	return geoloc.Accurate(), nil
}
