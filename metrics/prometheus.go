package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Total number of checkout attempts.",
		},
		[]string{"result"},
	)
	paymentCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Total number of payment gateway notifications.",
		},
		[]string{"result"},
	)
	ordersTransitionedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_transitioned_total",
			Help: "Total number of order status transitions.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(checkoutsTotal)
	prometheus.MustRegister(paymentCallbacksTotal)
	prometheus.MustRegister(ordersTransitionedTotal)
}

// RecordCheckout counts a checkout attempt by outcome:
// ok, insufficient_stock, validation, error.
func RecordCheckout(result string) {
	checkoutsTotal.WithLabelValues(result).Inc()
}

// RecordPaymentCallback counts a gateway notification by outcome:
// ok, bad_signature, not_found, error.
func RecordPaymentCallback(result string) {
	paymentCallbacksTotal.WithLabelValues(result).Inc()
}

// RecordTransition counts an order landing in a status.
func RecordTransition(status string) {
	ordersTransitionedTotal.WithLabelValues(status).Inc()
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
