// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Evaluation metrics
	WalletsEvaluated  *prometheus.CounterVec // by tier
	WalletErrors      prometheus.Counter
	ScoreDistribution prometheus.Histogram

	// Backtest metrics
	BacktestsRun    *prometheus.CounterVec // by status
	TradesSimulated prometheus.Counter
	TradesRejected  *prometheus.CounterVec // by category

	// Liquidity metrics
	SnapshotCacheHits   prometheus.Counter
	SnapshotCacheMisses prometheus.Counter
	FallbackLookups     prometheus.Counter
	ProviderLatency     prometheus.Histogram

	// Publication metrics
	PublishDuration       prometheus.Histogram
	PublishFailures       prometheus.Counter
	LastSuccessfulPublish prometheus.Gauge
	RosterSize            prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on the default
// Prometheus registry. Call at most once per process.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers all metrics on reg. Tests use a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_scout"
	}
	factory := promauto.With(reg)

	return &Metrics{
		WalletsEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "wallets_total",
			Help:      "Total wallets evaluated, by final tier",
		}, []string{"tier"}),
		WalletErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "wallet_errors_total",
			Help:      "Total wallets whose evaluation errored",
		}),
		ScoreDistribution: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "score",
			Help:      "Distribution of wallet quality scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		BacktestsRun: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total backtests run, by validation status",
		}, []string{"status"}),
		TradesSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total trades accepted into simulation",
		}),
		TradesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_rejected_total",
			Help:      "Total trades rejected during simulation, by category",
		}, []string{"category"}),
		SnapshotCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "cache_hits_total",
			Help:      "Snapshot cache hits",
		}),
		SnapshotCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "cache_misses_total",
			Help:      "Snapshot cache misses",
		}),
		FallbackLookups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "fallback_lookups_total",
			Help:      "Historical lookups that fell back to current liquidity",
		}),
		ProviderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "provider_latency_seconds",
			Help:      "External liquidity provider request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		PublishDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "publish_duration_seconds",
			Help:      "Roster publish duration",
			Buckets:   prometheus.DefBuckets,
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "publish_failures_total",
			Help:      "Total failed roster publishes",
		}),
		LastSuccessfulPublish: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "last_successful_publish_timestamp",
			Help:      "Unix timestamp of the last successful publish",
		}),
		RosterSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "size",
			Help:      "Record count of the last published roster",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
