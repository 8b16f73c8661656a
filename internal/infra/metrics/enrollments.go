package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(freeEnrollmentsTotal, cartOperationsTotal) }

var (
	freeEnrollmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "free_enrollments_total",
			Help: "Total number of free course enrollments.",
		},
	)

	cartOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart mutations by operation.",
		},
		[]string{"op"}, // add | remove | clear
	)
)

func IncFreeEnrollment() {
	freeEnrollmentsTotal.Inc()
}

func IncCartOperation(op string) {
	cartOperationsTotal.WithLabelValues(norm(op)).Inc()
}
