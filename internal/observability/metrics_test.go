package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	jobmetrics "github.com/cleanmanager/cleanmanager/internal/jobs"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

var _ profitability.Observer = (*Metrics)(nil)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("profitability:warmup").End(nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, `cleanmanager_jobs_total{job="profitability:warmup",status="success"} 1`) {
		t.Fatalf("expected job counter, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/rentabilidad")

	req := httptest.NewRequest(http.MethodGet, "/rentabilidad", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "http_requests_total{code=\"418\",route=\"/rentabilidad\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "http_request_duration_seconds_bucket{route=\"/rentabilidad\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveCalculation(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCalculation("summary", 20*time.Millisecond, nil)
	metrics.ObserveCalculation("trend", time.Second, errors.New("boom"))

	body := scrape(t, metrics)
	if !strings.Contains(body, `cleanmanager_profitability_calculation_seconds_count{operation="summary",status="success"} 1`) {
		t.Fatalf("expected summary observation, got: %s", body)
	}
	if !strings.Contains(body, `cleanmanager_profitability_calculation_seconds_count{operation="trend",status="failure"} 1`) {
		t.Fatalf("expected trend failure observation, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveCalculation("summary", time.Millisecond, nil)
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
