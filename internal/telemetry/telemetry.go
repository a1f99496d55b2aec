// Package telemetry defines the Prometheus metrics for the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	polygonRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polygon_api_requests_total",
			Help: "Total Polygon.io API requests, labeled by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	polygonRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polygon_api_request_duration_seconds",
			Help:    "Histogram of Polygon.io request latencies, labeled by endpoint.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polygon_rate_limit_delays_seconds",
			Help:    "Histogram of rate limit wait durations, labeled by endpoint.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	toolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_invocations_total",
			Help: "Total MCP tool invocations, labeled by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	tickerSearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticker_searches_total",
			Help: "Total ticker similarity searches served.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// ObservePolygonRequest records metrics for one Polygon.io API call.
func ObservePolygonRequest(endpoint string, code int, duration time.Duration) {
	polygonRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	polygonRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(endpoint string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveToolInvocation records one MCP tool call and its outcome.
func ObserveToolInvocation(tool, outcome string) {
	toolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
}

// ObserveTickerSearch records one ticker index search.
func ObserveTickerSearch() {
	tickerSearchesTotal.Inc()
}

// ObserveHTTPRequest records metrics for an inbound HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
