// Package metrics exposes Prometheus instrumentation for the geometry core and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s1meta_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"route", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s1meta_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	gridBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s1meta_grid_builds_total",
			Help: "Geolocation grids built, by outcome.",
		},
		[]string{"outcome"},
	)

	gridBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "s1meta_grid_build_seconds",
			Help:    "Time spent building a geolocation grid.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)

	maskResolvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s1meta_mask_resolves_total",
			Help: "Mask resolution steps performed, by state reached.",
		},
		[]string{"state"},
	)

	burstClampsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "s1meta_burst_index_clamps_total",
			Help: "Image lines whose burst mapping exceeded the geolocation grid and was clamped.",
		},
	)

	productsOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s1meta_products_opened_total",
			Help: "Products opened, by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(gridBuildsTotal)
	prometheus.MustRegister(gridBuildSeconds)
	prometheus.MustRegister(maskResolvesTotal)
	prometheus.MustRegister(burstClampsTotal)
	prometheus.MustRegister(productsOpenedTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveGridBuild records one grid build.
func ObserveGridBuild(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	gridBuildsTotal.WithLabelValues(outcome).Inc()
	gridBuildSeconds.Observe(d.Seconds())
}

// MaskResolved records that a mask reached state.
func MaskResolved(state string) {
	maskResolvesTotal.WithLabelValues(state).Inc()
}

// BurstClamps adds n clamped burst index mappings.
func BurstClamps(n int) {
	burstClampsTotal.Add(float64(n))
}

// ProductOpened records an opened product; kind is "single" or "multi".
func ProductOpened(kind string) {
	productsOpenedTotal.WithLabelValues(kind).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request, labelled
// by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
