package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsStarted counts created troubleshooting sessions.
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repaird",
			Subsystem: "sessions",
			Name:      "started_total",
			Help:      "Total number of troubleshooting sessions created",
		},
	)

	// SessionsCompleted counts terminal sessions by outcome.
	// Labels: outcome (success, escalated)
	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repaird",
			Subsystem: "sessions",
			Name:      "completed_total",
			Help:      "Total number of completed sessions by outcome",
		},
		[]string{"outcome"},
	)

	// RepairAttemptsIssued counts repair steps handed to users.
	RepairAttemptsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repaird",
			Subsystem: "sessions",
			Name:      "repair_attempts_total",
			Help:      "Total number of repair steps issued across all sessions",
		},
	)

	// RequestDuration tracks HTTP request latency by route and status.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "repaird",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
