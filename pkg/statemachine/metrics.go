package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "userflow"
	metricsSubsystem = "statemachine"
)

// Failure stages used as the "stage" label.
const (
	stageGuard  = "guard"
	stageAction = "action"
	stageExit   = "exit"
	stageEnter  = "enter"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "transitions_total",
		Help:      "Committed state transitions by machine, source state, target state and event",
	}, []string{"machine", "from", "to", "event"})

	unhandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "unhandled_events_total",
		Help:      "Events the current state did not react to, by machine, state and event",
	}, []string{"machine", "state", "event"})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "failures_total",
		Help:      "Failed transition attempts by machine, state, event and failing stage (guard, action, exit, enter)",
	}, []string{"machine", "state", "event", "stage"})

	fireDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "fire_duration_seconds",
		Help:      "Duration of committed transitions including actions and hooks",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"machine", "event"})
)
