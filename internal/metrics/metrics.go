// Package metrics exposes Prometheus instrumentation for the signal pipeline
// plus the /metrics and /healthz HTTP endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the signal engine.
type Metrics struct {
	TicksIngested prometheus.Counter
	TicksRejected *prometheus.CounterVec // labels: reason

	DecisionsTotal *prometheus.CounterVec // labels: type, action
	SignalsTotal   prometheus.Counter
	SignalsClosed  *prometheus.CounterVec // labels: reason
	SignalsGated   *prometheus.CounterVec // labels: gate
	ActiveSignals  prometheus.Gauge

	VerifyDur        prometheus.Histogram
	PriceQueryErrors prometheus.Counter

	FeedReconnects *prometheus.CounterVec // labels: exchange
	FeedFailures   *prometheus.CounterVec // labels: exchange

	RedisPublishes     prometheus.Counter
	RedisPublishErrors prometheus.Counter
	RedisBreakerState  prometheus.Gauge // 0=closed, 1=open, 2=half-open
}

// New registers and returns all pipeline metrics.
func New() *Metrics {
	m := &Metrics{
		TicksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_ticks_ingested_total",
			Help: "Valid ticks accepted into the tick store",
		}),
		TicksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_ticks_rejected_total",
			Help: "Ticks rejected by validation (by reason)",
		}, []string{"reason"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_decisions_total",
			Help: "Decisions produced by the rule engine (by type and action)",
		}, []string{"type", "action"}),
		SignalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_signals_generated_total",
			Help: "Signals accepted through all quality gates",
		}),
		SignalsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_signals_closed_total",
			Help: "Resolved signals (by close reason)",
		}, []string{"reason"}),
		SignalsGated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_signals_gated_total",
			Help: "Signal candidates rejected by a quality gate (by gate)",
		}, []string{"gate"}),
		ActiveSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_active_signals",
			Help: "Currently ACTIVE signals",
		}),
		VerifyDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_verify_duration_seconds",
			Help:    "Signal verification pass latency",
			Buckets: prometheus.DefBuckets,
		}),
		PriceQueryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_price_query_errors_total",
			Help: "Per-signal price query failures during verification",
		}),
		FeedReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_feed_reconnects_total",
			Help: "Feed reconnection attempts (by exchange)",
		}, []string{"exchange"}),
		FeedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_feed_failures_total",
			Help: "Feeds that exhausted reconnection attempts (by exchange)",
		}, []string{"exchange"}),
		RedisPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_redis_publishes_total",
			Help: "Events mirrored to Redis pub/sub",
		}),
		RedisPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_redis_publish_errors_total",
			Help: "Failed Redis publishes",
		}),
		RedisBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_redis_breaker_state",
			Help: "Redis publish circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
	}

	prometheus.MustRegister(
		m.TicksIngested,
		m.TicksRejected,
		m.DecisionsTotal,
		m.SignalsTotal,
		m.SignalsClosed,
		m.SignalsGated,
		m.ActiveSignals,
		m.VerifyDur,
		m.PriceQueryErrors,
		m.FeedReconnects,
		m.FeedFailures,
		m.RedisPublishes,
		m.RedisPublishErrors,
		m.RedisBreakerState,
	)

	return m
}
