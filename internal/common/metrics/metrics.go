// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Total number of applications accepted by intake",
		},
		[]string{"result"},
	)

	DecisionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_decisions_processed_total",
			Help: "Total number of decisions produced by the worker",
		},
		[]string{"status"},
	)

	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "loan_decision_duration_seconds",
			Help: "Duration of message processing in seconds",
		},
		[]string{"status"},
	)

	DeadLetteredMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_dead_lettered_messages_total",
			Help: "Total number of unprocessable messages sent to the dead-letter topic",
		},
	)

	StatusLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_status_lookups_total",
			Help: "Total number of status lookups by outcome",
		},
		[]string{"result"},
	)
)
