// Package metrics holds the prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	answersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_answers_total",
			Help: "Total number of answered questions by result status.",
		},
		[]string{"status"},
	)

	completionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nl2sql_completion_duration_seconds",
			Help:    "Latency of language-model completion calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	executionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nl2sql_execution_duration_seconds",
			Help:    "Latency of SQL execution including connection setup.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nl2sql_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		answersTotal,
		completionDurationSeconds,
		executionDurationSeconds,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	)
}

func ObserveAnswer(status string) {
	answersTotal.WithLabelValues(status).Inc()
}

func ObserveCompletion(d time.Duration) {
	completionDurationSeconds.Observe(d.Seconds())
}

func ObserveExecution(status string, d time.Duration) {
	executionDurationSeconds.WithLabelValues(status).Observe(d.Seconds())
}

func ObserveHTTP(method, path string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path, code).Observe(d.Seconds())
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
