package apiclient

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Middleware decorates a RoundTripper. Middleware only observes exchanges;
// request headers are set by Client.do before the chain runs.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain wraps next so that the first middleware is the outermost.
func Chain(next http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}

type routeKey struct{}

func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// routeFrom returns the route template stored by Client.do, falling back to
// the raw path for requests built elsewhere.
func routeFrom(r *http.Request) string {
	if v, ok := r.Context().Value(routeKey{}).(string); ok && v != "" {
		return v
	}
	return r.URL.Path
}

// Logging emits one debug line per outgoing request and one per response.
// Failures are logged separately by the client once normalized.
func Logging() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			corr := r.Header.Get(HeaderCorrelationID)
			log.Debug().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("correlation_id", corr).
				Msg("api request")

			start := time.Now()
			resp, err := next.RoundTrip(r)
			if err != nil {
				return nil, err
			}
			log.Debug().
				Str("url", r.URL.String()).
				Int("status", resp.StatusCode).
				Dur("latency", time.Since(start)).
				Str("correlation_id", corr).
				Msg("api response")
			return resp, nil
		})
	}
}

var (
	apiReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_api_requests_total",
			Help: "Outbound requests to the planner backend.",
		},
		[]string{"method", "route", "status"},
	)

	apiLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_api_request_duration_seconds",
			Help:    "Latency of outbound requests to the planner backend.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(apiReqs, apiLat)
}

// Metrics records outbound request counts and latency. The status label is
// "0" when no response was received.
func Metrics() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			route := routeFrom(r)
			status := "0"
			if resp != nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			apiReqs.WithLabelValues(r.Method, route, status).Inc()
			apiLat.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

func newHTTPClient() *http.Client {
	d := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           d.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr}
}
