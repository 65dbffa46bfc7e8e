package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "questhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebhookEvents counts partner webhook deliveries by category and outcome.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questhub_webhook_events_total",
		Help: "Total partner webhook events by category and outcome",
	}, []string{"category", "outcome"})

	// RewardIssuances counts ledger entries created or transitioned by type and status.
	RewardIssuances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questhub_reward_issuances_total",
		Help: "Total reward issuances by reward type and status",
	}, []string{"type", "status"})

	// ReviewDecisions counts submission review decisions by action and outcome.
	ReviewDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questhub_review_decisions_total",
		Help: "Total submission review decisions by action and outcome",
	}, []string{"action", "outcome"})

	// RateLimitRejections counts requests rejected by the webhook rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questhub_rate_limit_rejections_total",
		Help: "Total requests rejected by rate limiting, by resource",
	}, []string{"resource"})

	// ReconciliationRuns counts reconciliation sweeps and the issuances they repaired.
	ReconciliationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questhub_ledger_reconciliation_total",
		Help: "Total ledger reconciliation outcomes",
	}, []string{"outcome"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
