package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestsTotal, httpRequestDuration) }

var httpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests, labeled by route and status class.",
	},
	[]string{"route", "status"},
)

var httpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route"},
)

func ObserveHTTPRequest(route, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(norm(route), norm(status)).Inc()
	httpRequestDuration.WithLabelValues(norm(route)).Observe(d.Seconds())
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
