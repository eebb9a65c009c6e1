package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/today", nil))
	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+16 {
		t.Fatalf("unexpected generated id %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatal("response should echo the request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/today", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "upstream-42" {
		t.Fatalf("incoming id not kept, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/today", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("oversized incoming id should be replaced, got %q", seen)
	}
}

func TestMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m := NewMiddleware(func(*http.Request) string { return "127.0.0.1" }, metrics)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/today", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/today", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if v := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "200")); v != 2 {
		t.Fatalf("expected 2 ok requests, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "404")); v != 1 {
		t.Fatalf("expected 1 not found, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.inFlight); v != 0 {
		t.Fatalf("in-flight gauge should return to 0, got %v", v)
	}
	if n := testutil.CollectAndCount(metrics.duration); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rw.Write([]byte("body"))
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusOK {
		t.Fatalf("status after implicit 200 changed to %d", rw.statusCode)
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
