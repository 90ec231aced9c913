package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circleup_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circleup_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	suggestionRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circleup_suggestion_requests_total",
			Help: "Total suggestion computations served",
		},
	)

	suggestionResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "circleup_suggestion_result_size",
			Help:    "Suggestions returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		method := c.Request.Method
		// Use the route template, not the raw URL, to keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(startTime).Seconds()
		statusStr := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
	}
}

// RecordSuggestionRequest records one served suggestion computation and how
// many suggestions it returned
func RecordSuggestionRequest(resultSize int) {
	suggestionRequestsTotal.Inc()
	suggestionResultSize.Observe(float64(resultSize))
}
