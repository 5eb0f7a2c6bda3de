package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/products/{id}", "GET", "418"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/products/{id}", "GET", "418"))

	if after-before != 2 {
		t.Errorf("Expected 2 requests recorded under the route pattern, got %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	ok := testutil.ToFloat64(gridBuildsTotal.WithLabelValues("ok"))
	failed := testutil.ToFloat64(gridBuildsTotal.WithLabelValues("error"))
	ObserveGridBuild(time.Millisecond, nil)
	ObserveGridBuild(time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(gridBuildsTotal.WithLabelValues("ok")) - ok; got != 1 {
		t.Errorf("Expected 1 ok build, got %v", got)
	}
	if got := testutil.ToFloat64(gridBuildsTotal.WithLabelValues("error")) - failed; got != 1 {
		t.Errorf("Expected 1 failed build, got %v", got)
	}

	clamps := testutil.ToFloat64(burstClampsTotal)
	BurstClamps(3)
	if got := testutil.ToFloat64(burstClampsTotal) - clamps; got != 3 {
		t.Errorf("Expected 3 clamps, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	MaskResolved("final")
	ProductOpened("single")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"s1meta_mask_resolves_total", "s1meta_products_opened_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected %s in metrics output", name)
		}
	}
}
