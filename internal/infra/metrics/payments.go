package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(paymentRequestsTotal, slipVerificationsTotal) }

var paymentRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_requests_total",
		Help: "Payment requests served, labeled by transaction type.",
	},
	[]string{"type", "outcome"}, // outcome: 'ok', 'error'
)

var slipVerificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "slip_verifications_total",
		Help: "Slip verification attempts, labeled by result.",
	},
	[]string{"result"}, // 'settled', 'mismatch', 'error'
)

func IncPaymentRequest(typ, outcome string) {
	paymentRequestsTotal.WithLabelValues(norm(typ), norm(outcome)).Inc()
}

func IncSlipVerification(result string) {
	slipVerificationsTotal.WithLabelValues(norm(result)).Inc()
}
