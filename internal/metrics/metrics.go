package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction outcome labels. Only OutcomeFlight leads to a flight search;
// the rest all degrade to the chat path but are kept apart here.
const (
	OutcomeFlight      = "flight"
	OutcomeNotFlight   = "not_flight"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeIncomplete  = "incomplete"
)

var (
	ExtractionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ota_intent_extraction_total",
			Help: "Intent extraction attempts by outcome",
		},
		[]string{"outcome"},
	)

	TurnsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ota_turns_total",
			Help: "Conversation turns by route and result",
		},
		[]string{"route", "result"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ota_upstream_duration_seconds",
			Help:    "Latency of calls to chat, intent and flight backends",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	FlightSearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ota_flight_search_failures_total",
			Help: "Flight searches that failed, by HTTP status (0 for network errors)",
		},
		[]string{"status"},
	)
)
