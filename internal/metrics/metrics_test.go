package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/gtfsload/internal/feed"
)

func TestTableScanned(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TableScanned(feed.ScanResult{Table: "stops", State: feed.StateCompleted, Rows: 120, Bytes: 4096, Duration: 20 * time.Millisecond})
	m.TableScanned(feed.ScanResult{Table: "shapes", State: feed.StateSkippedOptional})

	if got := testutil.ToFloat64(m.RowsScannedTotal.WithLabelValues("stops")); got != 120 {
		t.Errorf("rows = %v, want 120", got)
	}
	if got := testutil.ToFloat64(m.BytesReadTotal.WithLabelValues("stops")); got != 4096 {
		t.Errorf("bytes = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(m.TablesScannedTotal.WithLabelValues("shapes", "skipped_optional")); got != 1 {
		t.Errorf("skipped tables = %v, want 1", got)
	}
}

func TestAdd_CountsByKind(t *testing.T) {
	m := New(prometheus.NewRegistry())
	var sink feed.Sink = m

	sink.Add(feed.ValidationError{Kind: feed.KindRange, Table: "stops", Row: 1})
	sink.Add(feed.ValidationError{Kind: feed.KindRange, Table: "stops", Row: 2})
	sink.Add(feed.ValidationError{Kind: feed.KindMissingTable, Table: "agency"})

	if got := testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("stops", "range")); got != 2 {
		t.Errorf("range errors = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.ValidationErrorsTotal); got != 2 {
		t.Errorf("series = %d, want 2", got)
	}
}

func TestStarted(t *testing.T) {
	m := New(prometheus.NewRegistry())

	done := m.Started()
	if got := testutil.ToFloat64(m.ValidationsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	done(OutcomeInvalid)
	m.Rejected()

	if got := testutil.ToFloat64(m.ValidationsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues(OutcomeInvalid)); got != 1 {
		t.Errorf("invalid = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues(OutcomeRejected)); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.TableScanned(feed.ScanResult{Table: "stops"})
	m.Add(feed.ValidationError{Kind: feed.KindRange})
	m.Started()(OutcomeValid)
	m.Rejected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/runs/{runID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/abc", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/runs/{runID}", "404")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "gtfs_http_requests_total") {
		t.Error("metrics output missing gtfs_http_requests_total")
	}
}
