// Package metrics exposes Prometheus instrumentation for feed validation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/gtfsload/internal/feed"
)

// Outcome labels for ValidationsTotal.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Table metrics
	TablesScannedTotal *prometheus.CounterVec
	RowsScannedTotal   *prometheus.CounterVec
	BytesReadTotal     *prometheus.CounterVec
	TableScanDuration  *prometheus.HistogramVec

	// Validation metrics
	ValidationErrorsTotal *prometheus.CounterVec
	ValidationsTotal      *prometheus.CounterVec
	ValidationDuration    prometheus.Histogram
	ValidationsInFlight   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gtfs_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		TablesScannedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_tables_scanned_total",
				Help: "Tables scanned, by final scan state",
			},
			[]string{"table", "state"},
		),
		RowsScannedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_rows_scanned_total",
				Help: "Data rows scanned",
			},
			[]string{"table"},
		),
		BytesReadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_bytes_read_total",
				Help: "Uncompressed table bytes read",
			},
			[]string{"table"},
		),
		TableScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gtfs_table_scan_duration_seconds",
				Help:    "Time spent scanning one table",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"table"},
		),

		ValidationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_validation_errors_total",
				Help: "Validation errors recorded, by table and kind",
			},
			[]string{"table", "kind"},
		),
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_validations_total",
				Help: "Feed validations, by outcome",
			},
			[]string{"outcome"},
		),
		ValidationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gtfs_validation_duration_seconds",
				Help:    "Whole-feed validation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
			},
		),
		ValidationsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gtfs_validations_in_flight",
				Help: "Validations currently running",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TablesScannedTotal,
		m.RowsScannedTotal,
		m.BytesReadTotal,
		m.TableScanDuration,
		m.ValidationErrorsTotal,
		m.ValidationsTotal,
		m.ValidationDuration,
		m.ValidationsInFlight,
	)

	return m
}

// TableScanned implements feed.Observer.
func (m *Metrics) TableScanned(res feed.ScanResult) {
	if m == nil {
		return
	}
	m.TablesScannedTotal.WithLabelValues(res.Table, res.State.String()).Inc()
	m.RowsScannedTotal.WithLabelValues(res.Table).Add(float64(res.Rows))
	m.BytesReadTotal.WithLabelValues(res.Table).Add(float64(res.Bytes))
	m.TableScanDuration.WithLabelValues(res.Table).Observe(res.Duration.Seconds())
}

// Add implements feed.Sink by counting the error.
func (m *Metrics) Add(e feed.ValidationError) {
	if m == nil {
		return
	}
	m.ValidationErrorsTotal.WithLabelValues(e.Table, e.Kind.String()).Inc()
}

// Started marks a validation as running and returns a func that records its
// outcome and duration.
func (m *Metrics) Started() func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ValidationsInFlight.Inc()
	return func(outcome string) {
		m.ValidationsInFlight.Dec()
		m.ValidationsTotal.WithLabelValues(outcome).Inc()
		m.ValidationDuration.Observe(time.Since(start).Seconds())
	}
}

// Rejected counts a validation turned away before it started.
func (m *Metrics) Rejected() {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(OutcomeRejected).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
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

// Middleware instruments HTTP requests. Requests are labeled by chi route
// pattern rather than raw path to keep run ids out of label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
