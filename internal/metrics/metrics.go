package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_change_events_total",
			Help: "Change events consumed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	PushSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_push_sends_total",
			Help: "Per-recipient push send attempts, by mode and status",
		},
		[]string{"mode", "status"},
	)

	HistoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_history_writes_total",
			Help: "Notification history appends, by status",
		},
		[]string{"status"},
	)

	BroadcastDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifier_broadcast_duration_seconds",
			Help:    "Wall time of a full admin broadcast fan-out",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func Init() {
	prometheus.MustRegister(EventsConsumed, PushSends, HistoryWrites, BroadcastDuration)
}
