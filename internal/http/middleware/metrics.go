// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for inbound HTTP traffic. The
// Metrics() middleware measures request counts, latencies, in-flight
// concurrency and response sizes with bounded label cardinality:
//
//   - surface:  "page" for operator HTML pages, "api" for the JSON routes,
//     "ops" for /health and /metrics (see Surface)
//   - method:   HTTP method verb (GET/POST)
//   - path:     the registered Gin route (e.g. /credits/:userId/:itemTypeId);
//     requests that matched no route share the "unmatched" label so
//     probing scanners cannot grow the series set
//   - status:   numeric status code as a string (e.g. "200", "502")
//
// Page statuses mirror the presentation router (upstream status for inline
// errors, 502 for toasted ones), so the status label doubles as a view of
// backend health from the operator's side. All collectors are safe for
// concurrent use.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by surface, method, route path and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"surface", "method", "path", "status"},
	)

	// httpLat records request duration in seconds. Status is omitted to keep
	// the histogram small.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"surface", "method", "path"},
	)

	// httpInflight tracks requests currently being served.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize records response body sizes; rendered pages land in the
	// low kilobyte buckets.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20,
			},
		},
		[]string{"surface", "method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize)
}

// Surface classifies a route path: "api" for /api/..., "ops" for health and
// metrics, "page" for everything rendered as HTML.
func Surface(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/"):
		return "api"
	case path == "/health" || path == "/metrics":
		return "ops"
	default:
		return "page"
	}
}

// Metrics records request counts, latency, in-flight requests and response
// size. Unmatched routes are labelled "unmatched" rather than by raw path.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		surface := Surface(path)
		method := c.Request.Method

		httpReqs.WithLabelValues(surface, method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(surface, method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written (e.g. hijacked connections).
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(surface, method, path).Observe(float64(size))
		}
	}
}
