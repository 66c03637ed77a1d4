package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentsOrphanedSwept,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment intents by resulting status (pending/success/failed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_revenue_idr_total",
			Help: "The total monetary value of successful payments, in IDR.",
		},
	)

	paymentsOrphanedSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_orphaned_swept_total",
			Help: "Pending intents without a gateway token failed by the sweeper.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(amount int64) {
	paymentsRevenueTotal.Add(float64(amount))
}

func IncOrphanedSwept() {
	paymentsOrphanedSwept.Inc()
}
