// Package metrics holds the prometheus collectors of the game server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_actions_total",
			Help: "Actions executed, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "game_action_duration_seconds",
			Help:    "Time from lock acquisition to the last broadcast of an action",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
	ExpirationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "key_expirations_total",
			Help: "Expiry notifications seen, by key kind and whether this process handled them",
		},
		[]string{"kind", "handled"},
	)
	LockWaits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_lock_timeouts_total",
			Help: "Actions rejected because the game lock could not be taken",
		},
	)
	CompletionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_completion_failures_total",
			Help: "Game completion lifecycles that failed",
		},
	)
	ConnectedSockets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connected_sockets",
			Help: "Sockets connected to this process",
		},
	)
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(ActionsTotal)
	prometheus.MustRegister(ActionDuration)
	prometheus.MustRegister(ExpirationsTotal)
	prometheus.MustRegister(LockWaits)
	prometheus.MustRegister(CompletionFailures)
	prometheus.MustRegister(ConnectedSockets)
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
}
