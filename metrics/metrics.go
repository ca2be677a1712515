package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReportTransitions counts applied status changes.
	ReportTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challanx_report_transitions_total",
			Help: "Applied report status transitions, by source and target status.",
		},
		[]string{"from", "to", "source"},
	)

	// TransitionNoops counts transition requests that found the report already
	// past the required status.
	TransitionNoops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challanx_report_transition_noops_total",
			Help: "Transition requests discarded because the report had already moved on.",
		},
		[]string{"source"},
	)

	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challanx_votes_total",
			Help: "Vote actions, by vote type and outcome (added, changed, retracted).",
		},
		[]string{"vote_type", "action"},
	)

	DetectionCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challanx_detection_calls_total",
			Help: "Calls to external detection providers, by provider and result.",
		},
		[]string{"provider", "result"},
	)

	DetectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "challanx_detection_duration_seconds",
			Help:    "Latency of external detection providers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	RewardOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challanx_reward_evaluations_total",
			Help: "Reward ledger evaluations, by outcome.",
		},
		[]string{"outcome"},
	)

	RewardAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challanx_reward_amount_total",
			Help: "Sum of reward amounts credited to reporters.",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "challanx_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route, method and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challanx_cache_hits_total",
			Help: "Report cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challanx_cache_misses_total",
			Help: "Report cache misses.",
		},
	)
)

// Register adds every collector to reg. Call once at startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		ReportTransitions,
		TransitionNoops,
		VotesTotal,
		DetectionCalls,
		DetectionDuration,
		RewardOutcomes,
		RewardAmount,
		RequestDuration,
		CacheHits,
		CacheMisses,
	)
}
