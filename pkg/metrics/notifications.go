package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "durent"

// Dispatch outcomes recorded per notification type.
const (
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
	OutcomeIneligible = "ineligible"
	OutcomeError      = "error"
)

// NotificationMetrics counts dispatch outcomes and push latency.
type NotificationMetrics struct {
	dispatched *prometheus.CounterVec
	pushTime   *prometheus.HistogramVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dispatched_total",
		Help:      "Notification dispatch attempts by type and outcome.",
	}, []string{"type", "outcome"})
	pushTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "push_send_duration_seconds",
		Help:      "Latency of push gateway calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider"})
	reg.MustRegister(dispatched, pushTime)
	return &NotificationMetrics{dispatched: dispatched, pushTime: pushTime}
}

// IncDispatch records a dispatch outcome for the notification type.
func (n *NotificationMetrics) IncDispatch(notificationType, outcome string) {
	if n == nil || n.dispatched == nil {
		return
	}
	n.dispatched.WithLabelValues(normalizeLabel(notificationType), normalizeLabel(outcome)).Inc()
}

// ObservePush records a push gateway round trip.
func (n *NotificationMetrics) ObservePush(provider string, seconds float64) {
	if n == nil || n.pushTime == nil {
		return
	}
	n.pushTime.WithLabelValues(normalizeLabel(provider)).Observe(seconds)
}
