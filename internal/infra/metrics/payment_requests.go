package metrics

import (
	"course-marketplace/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentRequestsCreatedTotal,
		paymentRequestDecisionsTotal,
		paymentRequestNoopTotal,
		approvedRevenueTotal,
		paymentRequestsByStatus,
	)
}

var (
	paymentRequestsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_requests_created_total",
			Help: "Payment requests submitted at checkout.",
		},
		[]string{"kind"}, // course | membership
	)

	paymentRequestDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_request_decisions_total",
			Help: "Admin decisions that moved a request out of pending.",
		},
		[]string{"kind", "decision"},
	)

	paymentRequestNoopTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_request_noop_total",
			Help: "Approve or reject calls on requests that were already decided.",
		},
		[]string{"action"},
	)

	approvedRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approved_revenue_total",
			Help: "Sum of approved request amounts in whole rupees.",
		},
		[]string{"kind"},
	)

	paymentRequestsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "payment_requests_total",
			Help: "Current number of payment requests by status.",
		},
		[]string{"status"},
	)
)

func IncRequestsCreated(kind model.RequestKind, n int) {
	paymentRequestsCreatedTotal.WithLabelValues(norm(string(kind))).Add(float64(n))
}

func IncRequestDecision(kind model.RequestKind, decision model.RequestStatus) {
	paymentRequestDecisionsTotal.WithLabelValues(norm(string(kind)), norm(string(decision))).Inc()
}

func IncRequestNoop(action string) {
	paymentRequestNoopTotal.WithLabelValues(norm(action)).Inc()
}

func AddApprovedRevenue(kind model.RequestKind, amount int64) {
	approvedRevenueTotal.WithLabelValues(norm(string(kind))).Add(float64(amount))
}

func SetRequestsByStatus(counts map[model.RequestStatus]int) {
	for _, s := range []model.RequestStatus{
		model.RequestStatusPending,
		model.RequestStatusApproved,
		model.RequestStatusRejected,
	} {
		paymentRequestsByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
