package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		eventsPublishedTotal,
		adminNotificationsTotal,
		checkoutRateLimitedTotal,
	)
}

var (
	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Lifecycle events handed to the broker, by result.",
		},
		[]string{"type", "result"}, // result: ok | error
	)

	adminNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_notifications_total",
			Help: "Admin notifications about pending requests, by result.",
		},
		[]string{"result"},
	)

	checkoutRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_rate_limited_total",
			Help: "Total number of checkout submissions refused by the rate limiter.",
		},
	)
)

func IncEventPublished(eventType, result string) {
	eventsPublishedTotal.WithLabelValues(norm(eventType), norm(result)).Inc()
}

func IncAdminNotification(result string) {
	adminNotificationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncCheckoutRateLimited() {
	checkoutRateLimitedTotal.Inc()
}
