package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsTaken tracks snapshot runs per store.
	SnapshotsTaken = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacer_snapshots_taken_total",
			Help: "Total number of catalog snapshots taken",
		},
		[]string{"store"},
	)

	// SnapshotsWritten tracks snapshot upserts that actually wrote.
	SnapshotsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacer_snapshots_written_total",
			Help: "Total number of snapshot upserts that changed stored counts",
		},
		[]string{"store"},
	)

	// ShopifyCallsTotal tracks Admin API page requests per store and outcome.
	ShopifyCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacer_shopify_calls_total",
			Help: "Total number of Shopify Admin API calls",
		},
		[]string{"store", "status"},
	)

	// ShopifyCallLatency tracks Admin API call latency.
	ShopifyCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pacer_shopify_call_latency_seconds",
			Help:    "Shopify Admin API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)

	// CategoryCount tracks the latest observed product count per category.
	CategoryCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacer_category_count",
			Help: "Latest observed product count per category",
		},
		[]string{"store", "category"},
	)

	// MixDeviation tracks the largest below-target deviation in percentage points.
	MixDeviation = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacer_mix_deviation_points",
			Help: "Largest below-target mix deviation in percentage points",
		},
		[]string{"store"},
	)

	// AlertsSent tracks dispatched mix alerts per store and channel.
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacer_alerts_sent_total",
			Help: "Total number of mix alerts sent",
		},
		[]string{"store", "channel"},
	)

	// FetchFailures tracks failed catalog fetches per store.
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacer_fetch_failures_total",
			Help: "Total number of failed catalog fetches",
		},
		[]string{"store"},
	)

	// DBConnectionPoolUsage tracks connection pool usage percentage.
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pacer_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)
