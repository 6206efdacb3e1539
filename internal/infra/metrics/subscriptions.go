package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(subscriptionsExpiredTotal, subscriptionsGrantedTotal) }

var subscriptionsExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "subscriptions_expired_total",
		Help: "Subscriptions deactivated by the expiry sweep.",
	},
)

var subscriptionsGrantedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subscriptions_granted_total",
		Help: "Subscriptions created or extended from settled payments.",
	},
	[]string{"kind"}, // 'slip', 'manual'
)

func AddExpiredSubscriptions(n int64) {
	subscriptionsExpiredTotal.Add(float64(n))
}

func IncSubscriptionGranted(kind string) {
	subscriptionsGrantedTotal.WithLabelValues(norm(kind)).Inc()
}
