package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookNotificationsTotal)
}

var webhookNotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Gateway webhook deliveries by reconciliation outcome (applied/noop/verification_failed/unrecognized/not_found/error).",
	},
	[]string{"outcome"},
)

func IncWebhookNotification(outcome string) {
	webhookNotificationsTotal.WithLabelValues(norm(outcome)).Inc()
}
