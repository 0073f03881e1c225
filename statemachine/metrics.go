package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions. Every series carries the machine name so several
// machines in one process stay distinguishable.
//
//nolint:gochecknoglobals
var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_transitions_total",
		Help: "Total number of applied transitions by machine, from_state, to_state, event and cause",
	}, []string{"machine", "from_state", "to_state", "event", "cause"})

	undefinedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_undefined_events_total",
		Help: "Events with no transition out of the current state, by outcome (ignored or rejected)",
	}, []string{"machine", "state", "event", "outcome"})

	timeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_timeouts_total",
		Help: "Timeout activity by machine, state and outcome (armed, fired, stale or dangling)",
	}, []string{"machine", "state", "outcome"})

	eventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_events_dropped_total",
		Help: "Asynchronous events that were discarded, by reason",
	}, []string{"machine", "reason"})

	operateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsm_operate_duration_seconds",
		Help:    "Time spent holding the operate lock, by machine, cause and outcome",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"machine", "cause", "outcome"})

	dispatchQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsm_dispatch_queue_depth",
		Help: "Number of events waiting in the asynchronous dispatch queue",
	}, []string{"machine"})

	machinesRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsm_machines_running",
		Help: "Number of started machines that have not been stopped",
	}, []string{"machine"})
)

const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeIgnored  = "ignored"
	outcomeRejected = "rejected"
	outcomeArmed    = "armed"
	outcomeFired    = "fired"
	outcomeStale    = "stale"
	outcomeDangling = "dangling"

	dropReasonStopped = "stopped"
	dropReasonFailed  = "failed"
)

func outcomeOf(err error) string {
	if err != nil {
		return outcomeError
	}

	return outcomeSuccess
}

func sanitizeEvent(event EventID) string {
	if event == NoEvent {
		return "none"
	}

	return string(event)
}
