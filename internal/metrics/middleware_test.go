package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/search:translate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})

	req := httptest.NewRequest("POST", "/v1/search:translate", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/search:translate", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/raw/{method}:validate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	for _, method := range []string{"search", "indices.delete"} {
		req := httptest.NewRequest("POST", "/v1/raw/"+method+":validate", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/raw/{method}:validate", "405"))
	if val < 2 {
		t.Errorf("expected both raw calls under one route label, got %f", val)
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Post("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Post("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	tests := []struct {
		path           string
		expectedStatus string
	}{
		{"/ok", "200"},
		{"/bad", "400"},
		{"/forbidden", "403"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("POST", tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/v1/*", "unmatched"},
		{"/*", "unmatched"},
		{"/v1/count:translate", "/v1/count:translate"},
		{"/v1/raw/{method}:validate", "/v1/raw/{method}:validate"},
		{"/health", "/health"},
	}

	for _, tc := range tests {
		result := normalizePath(tc.input)
		if result != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestNormalizeMethod(t *testing.T) {
	for _, m := range []string{"GET", "POST", "DELETE"} {
		if got := normalizeMethod(m); got != m {
			t.Errorf("normalizeMethod(%q) = %q", m, got)
		}
	}
	for _, m := range []string{"PROPFIND", "get", ""} {
		if got := normalizeMethod(m); got != "OTHER" {
			t.Errorf("normalizeMethod(%q) = %q, want OTHER", m, got)
		}
	}
}

func TestMetricsMiddleware_UnmatchedRoutesShareLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search:translate", func(w http.ResponseWriter, r *http.Request) {})
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "unmatched", "404"))
	for _, p := range []string{"/v1/nope", "/v1/other:thing", "/elsewhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", p, http.NoBody))
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "unmatched", "404")) - before
	if got != 3 {
		t.Errorf("expected 3 unmatched requests under one label, got %f", got)
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()

	httpRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if !strings.Contains(rr.Body.String(), `esquery_http_requests_total{method="GET",route="/health",status="200"}`) {
		t.Error("expected request counter in metrics output")
	}
}

func TestRegisterQueryMetrics_ExposedViaPromhttp(t *testing.T) {
	RegisterQueryMetrics()
	RegisterQueryMetrics() // second call is a no-op

	QueryRejectionsTotal.WithLabelValues("complexity").Inc()

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if !strings.Contains(string(body), `esquery_query_rejections_total{reason="complexity"}`) {
		t.Error("expected rejection counter in metrics output")
	}
}

func TestCacheMetrics_WiresCollectors(t *testing.T) {
	m := CacheMetrics()
	if m.Lookups != QueryCacheTotal || m.Evictions != QueryCacheEvictionsTotal || m.Entries != QueryCacheEntries {
		t.Fatal("expected cache metrics to reference the package collectors")
	}
}
