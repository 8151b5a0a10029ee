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
	EvaluationsTotal  *prometheus.CounterVec // labeled by outcome
	TriggersTotal     *prometheus.CounterVec // labeled by trigger
	EvaluationErrors  *prometheus.CounterVec // labeled by class
	EvaluationSeconds prometheus.Histogram

	// Execution metrics
	LegsExecuted  prometheus.Counter
	LegsFailed    prometheus.Counter
	DeferredValue prometheus.Counter
	SwapSeconds   prometheus.Histogram

	// Oracle metrics
	OracleLookups        *prometheus.CounterVec // labeled by result
	OracleFeedTicks      prometheus.Counter
	OracleFeedReconnects prometheus.Counter

	// State metrics
	BasketNav      *prometheus.GaugeVec // labeled by basket id
	BasketDrawdown *prometheus.GaugeVec
	BasketsFrozen  prometheus.Counter

	// Supply metrics
	TokensMinted  prometheus.Counter
	TokensBurned  prometheus.Counter
	FeesCollected prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "basket_engine"
	}

	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total basket evaluations by outcome",
		}, []string{"outcome"}),
		TriggersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "triggers_total",
			Help:      "Rebalance triggers fired by type",
		}, []string{"trigger"}),
		EvaluationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_errors_total",
			Help:      "Evaluation errors by class (validation, adapter, state)",
		}, []string{"class"}),
		EvaluationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_duration_seconds",
			Help:      "End to end evaluate_and_execute duration",
			Buckets:   prometheus.DefBuckets,
		}),
		LegsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "legs_executed_total",
			Help:      "Trade legs executed successfully",
		}),
		LegsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "legs_failed_total",
			Help:      "Trade legs that failed at quote or swap",
		}),
		DeferredValue: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "deferred_value_total",
			Help:      "Cumulative value deferred below the dust threshold",
		}),
		SwapSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "swap_duration_seconds",
			Help:      "DEX swap call duration",
			Buckets:   prometheus.DefBuckets,
		}),
		OracleLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "lookups_total",
			Help:      "Oracle price lookups by result (ok, stale, missing)",
		}, []string{"result"}),
		OracleFeedTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "feed_ticks_total",
			Help:      "Price ticks received on the websocket feed",
		}),
		OracleFeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "feed_reconnects_total",
			Help:      "Websocket feed reconnect attempts",
		}),
		BasketNav: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "basket_nav",
			Help:      "Last committed NAV per basket",
		}, []string{"basket_id"}),
		BasketDrawdown: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "basket_drawdown_bps",
			Help:      "Max drawdown watermark per basket in bps",
		}, []string{"basket_id"}),
		BasketsFrozen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "baskets_frozen_total",
			Help:      "Baskets frozen by the risk path",
		}),
		TokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supply",
			Name:      "tokens_minted_total",
			Help:      "Basket tokens minted",
		}),
		TokensBurned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supply",
			Name:      "tokens_burned_total",
			Help:      "Basket tokens burned",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supply",
			Name:      "fees_collected_total",
			Help:      "Fees accrued from mint and burn operations",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
