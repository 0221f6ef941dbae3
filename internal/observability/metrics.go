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
	// Price resolution
	PriceCacheHits     prometheus.Counter
	PriceCacheMisses   prometheus.Counter
	PriceSourceLookups *prometheus.CounterVec

	// Wallet tracking
	WalletsProcessed  prometheus.Counter
	WalletErrors      prometheus.Counter
	TradeEventsParsed prometheus.Counter
	TrackerRunsTotal  *prometheus.CounterVec
	TrackerDuration   prometheus.Histogram

	// RPC
	RPCCallLatency *prometheus.HistogramVec

	// API surface
	GraphQLRequests  *prometheus.CounterVec
	WebsocketClients prometheus.Gauge
	TradesIngested   prometheus.Counter

	// Health
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pnl_tracker"
	}

	return &Metrics{
		PriceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_hits_total",
			Help:      "Total number of price cache hits",
		}),
		PriceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_misses_total",
			Help:      "Total number of price cache misses",
		}),
		PriceSourceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "source_lookups_total",
			Help:      "Price source lookups by source and outcome",
		}, []string{"source", "outcome"}),

		WalletsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "wallets_processed_total",
			Help:      "Total number of wallets processed",
		}),
		WalletErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "wallet_errors_total",
			Help:      "Total number of per-wallet processing failures",
		}),
		TradeEventsParsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "trade_events_parsed_total",
			Help:      "Total number of trade events derived from transactions",
		}),
		TrackerRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "runs_total",
			Help:      "Tracker runs by status",
		}, []string{"status"}),
		TrackerDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "run_duration_seconds",
			Help:      "Duration of tracker runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Solana RPC call latency by method",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"method"}),

		GraphQLRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "graphql_requests_total",
			Help:      "GraphQL requests by status",
		}, []string{"status"}),
		WebsocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients",
		}),
		TradesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "trades_ingested_total",
			Help:      "Total number of trades ingested over the realtime feed",
		}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful tracker run",
		}),
	}
}

// CacheHit implements the pricing observer.
func (m *Metrics) CacheHit(string) {
	m.PriceCacheHits.Inc()
}

// CacheMiss implements the pricing observer.
func (m *Metrics) CacheMiss(string) {
	m.PriceCacheMisses.Inc()
}

// SourceLookup implements the pricing observer.
func (m *Metrics) SourceLookup(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PriceSourceLookups.WithLabelValues(source, outcome).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
