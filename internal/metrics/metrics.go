// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Short code metrics
	ShortCodeAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_short_code_attempts",
			Help:    "Candidate codes drawn per short code generation",
			Buckets: []float64{1, 2, 3, 5, 10, 100, 1000, 10000},
		},
	)

	ShortCodeExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_short_code_exhausted_total",
			Help: "Generations that gave up after the attempt ceiling",
		},
	)

	// Shopping list metrics
	ShoppingListLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Aggregated lines per downloaded shopping list",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordShortCode is a shortcode.WithObserver callback.
func RecordShortCode(attempts int, exhausted bool) {
	ShortCodeAttempts.Observe(float64(attempts))
	if exhausted {
		ShortCodeExhausted.Inc()
	}
}

// RecordShoppingList is a shopping.WithObserver callback.
func RecordShoppingList(lines int) {
	ShoppingListLines.Observe(float64(lines))
}
