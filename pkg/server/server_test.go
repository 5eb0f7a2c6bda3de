package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/s1meta/internal/config"
	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/metadata/synth"
)

func TestNew(t *testing.T) {
	p := synth.Default()
	s, err := New(Options{
		BaseURL:   "http://localhost:8080",
		Products:  []*config.ProductEntry{{ID: "slc", Name: p.Dir}},
		Providers: map[string]metadata.Provider{"slc": synth.Build(p)},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"slc"}, s.ProductIDs())

	req := httptest.NewRequest(http.MethodGet, "/products/slc/footprint", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Metrics are off unless enabled.
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewErrors(t *testing.T) {
	_, err := New(Options{Products: []*config.ProductEntry{{ID: "p", Name: "/data/p.SAFE"}}})
	assert.Error(t, err, "missing base URL")

	_, err = New(Options{BaseURL: "http://localhost"})
	assert.Error(t, err, "no products")

	_, err = New(Options{BaseURL: "http://localhost", CatalogDir: "/nonexistent"})
	assert.Error(t, err, "missing catalog dir")
}
