package main

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Response kinds for liveserver_responses_total.
const (
	responseDirectory = "directory"
	responseFile      = "file"
	responseRedirect  = "redirect"
	responseError     = "error"
)

type serverMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responsesTotal  *prometheus.CounterVec
	bytesServed     prometheus.Counter
	listingEntries  prometheus.Histogram
}

// newServerMetrics registers collectors on reg, or on a private registry when
// reg is nil.
func newServerMetrics(reg *prometheus.Registry) *serverMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &serverMetrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveserver_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liveserver_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		responsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveserver_responses_total",
				Help: "Responses by kind (directory, file, redirect, error)",
			},
			[]string{"kind"},
		),
		bytesServed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "liveserver_bytes_served_total",
				Help: "Total file bytes streamed to clients",
			},
		),
		listingEntries: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "liveserver_listing_entries",
				Help:    "Number of entries per rendered directory listing",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

func (m *serverMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode())).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func (m *serverMetrics) response(kind string) {
	m.responsesTotal.WithLabelValues(kind).Inc()
}

func (m *serverMetrics) served(n int64) {
	if n > 0 {
		m.bytesServed.Add(float64(n))
	}
}

func (m *serverMetrics) listed(n int) {
	m.listingEntries.Observe(float64(n))
}

// startMetricsServer exposes /metrics on its own listener so it never
// shadows a served path.
func startMetricsServer(addr string, m *serverMetrics, logger *zap.Logger) (*http.Server, error) {
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", ln.Addr().String()))
	return srv, nil
}
