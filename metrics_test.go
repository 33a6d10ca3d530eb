package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestMetricsMiddlewareCountsByStatus(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "a.txt"), "a")

	m := newServerMetrics(nil)
	s, err := NewShareServer(tmp, ServerOptions{Metrics: m})
	if err != nil {
		t.Fatalf("NewShareServer failed: %v", err)
	}
	h := s.Handler()
	doRequest(t, h, http.MethodGet, "/a.txt")
	doRequest(t, h, http.MethodGet, "/a.txt")
	doRequest(t, h, http.MethodGet, "/missing")

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "200")); got != 2 {
		t.Fatalf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "404")); got != 1 {
		t.Fatalf("404 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.responsesTotal.WithLabelValues(responseError)); got != 1 {
		t.Fatalf("error responses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bytesServed); got != 2 {
		t.Fatalf("bytes served = %v, want 2", got)
	}
}

func TestListedObservesEntryCount(t *testing.T) {
	m := newServerMetrics(nil)
	m.listed(3)
	m.listed(0)
	if got := testutil.CollectAndCount(m.listingEntries); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
	const want = `
# HELP liveserver_bytes_served_total Total file bytes streamed to clients
# TYPE liveserver_bytes_served_total counter
liveserver_bytes_served_total 0
`
	if err := testutil.CollectAndCompare(m.bytesServed, strings.NewReader(want)); err != nil {
		t.Fatalf("unexpected metric: %v", err)
	}
}

func TestMetricsServerExposesRegistry(t *testing.T) {
	m := newServerMetrics(nil)
	m.served(42)

	srv, err := startMetricsServer("127.0.0.1:0", m, zap.NewNop())
	if err != nil {
		t.Fatalf("startMetricsServer failed: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	// Serve the same handler through httptest to avoid guessing the port.
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"liveserver_bytes_served_total 42", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
