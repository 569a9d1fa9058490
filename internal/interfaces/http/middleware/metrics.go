package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// httpMetrics holds all HTTP-related metrics instruments.
type httpMetrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) (*httpMetrics, error) {
	m := &httpMetrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request latency distribution in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_server_response_size_bytes",
			Help:    "HTTP response body size distribution in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 500000, 1000000, 5000000},
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of currently active HTTP requests",
		}),
	}

	for _, c := range []prometheus.Collector{m.requestTotal, m.requestDuration, m.responseSize, m.activeRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// HTTPMetrics returns a middleware that records request counts, latency and
// response sizes on reg. Routes are labelled by pattern, not by path.
func HTTPMetrics(reg prometheus.Registerer) (gin.HandlerFunc, error) {
	metrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		start := time.Now()
		metrics.activeRequests.Inc()

		c.Next()

		metrics.activeRequests.Dec()
		route := getRoutePattern(c)
		method := c.Request.Method

		metrics.requestTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			metrics.responseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}, nil
}

// getRoutePattern returns the matched route pattern (e.g. "/api/v1/labels/:id")
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
