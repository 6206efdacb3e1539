package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dispatchMessagesTotal, dispatchRunDuration) }

var dispatchMessagesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dispatch_messages_total",
		Help: "Daily fortune messages pushed, labeled by outcome.",
	},
	[]string{"outcome"}, // 'sent', 'failed'
)

var dispatchRunDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "dispatch_run_duration_seconds",
		Help:    "Wall time of one daily dispatch run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	},
)

func AddDispatched(sent, failed int) {
	dispatchMessagesTotal.WithLabelValues("sent").Add(float64(sent))
	dispatchMessagesTotal.WithLabelValues("failed").Add(float64(failed))
}

func ObserveDispatchRun(seconds float64) {
	dispatchRunDuration.Observe(seconds)
}
