package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LeaveTransitions counts leave records entering a status, by leave type.
	LeaveTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_leave_transitions_total",
			Help: "Total number of leave status transitions",
		},
		[]string{"leave_type", "status"},
	)

	// SweepRecords counts records touched by scheduled sweeps (processed|failed|skipped).
	SweepRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_leave_sweep_records_total",
			Help: "Total number of leave records handled by sweeps",
		},
		[]string{"sweep", "result"},
	)

	// NotificationDispatch counts notification intents handed to the dispatcher (ok|error).
	NotificationDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_notification_dispatch_total",
			Help: "Total number of notification intents dispatched",
		},
		[]string{"result"},
	)

	// OutboxPublish counts outbox relay attempts (sent|failed|dead).
	OutboxPublish = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_outbox_publish_total",
			Help: "Total number of outbox publish attempts",
		},
		[]string{"result"},
	)

	// HTTPLatency measures API latency.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
