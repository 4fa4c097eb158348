package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seabot_commands_total",
			Help: "Total number of dispatched commands by outcome",
		},
		[]string{"command", "outcome"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seabot_command_duration_seconds",
			Help:    "Command handler duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"command"},
	)

	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seabot_gate_rejections_total",
			Help: "Messages stopped before dispatch, by reason",
		},
		[]string{"reason"},
	)

	IdentityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seabot_identity_resolutions_total",
			Help: "Identity resolutions by result (existing, alternate, merged, created, error)",
		},
		[]string{"result"},
	)

	LimitResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seabot_limit_resets_total",
			Help: "Users whose daily limit was reset by the midnight sweep",
		},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seabot_provider_failures_total",
			Help: "External API attempts that failed after retries",
		},
		[]string{"provider"},
	)
)
