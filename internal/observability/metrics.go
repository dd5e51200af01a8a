package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// registry sync pipeline.
type Metrics struct {
	FeaturesFetched  prometheus.Counter
	ListingsStored   prometheus.Counter
	TransformErrors  prometheus.Counter
	SyncRunning      prometheus.Gauge
	ListingCount     prometheus.Gauge
	LastSyncUnixtime prometheus.Gauge

	SyncDuration prometheus.Histogram
	FetchSize    prometheus.Histogram

	// Municipal roster metrics.
	RosterRecords  *prometheus.CounterVec // labels: municipality
	RosterFailures *prometheus.CounterVec // labels: municipality

	RenewalCategories *prometheus.GaugeVec // labels: category
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeaturesFetched,
		m.ListingsStored,
		m.TransformErrors,
		m.SyncRunning,
		m.ListingCount,
		m.LastSyncUnixtime,
		m.SyncDuration,
		m.FetchSize,
		m.RosterRecords,
		m.RosterFailures,
		m.RenewalCategories,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeaturesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rental_registry",
			Name:      "features_fetched_total",
			Help:      "Total raw features fetched from the registry layer.",
		}),
		ListingsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rental_registry",
			Name:      "listings_stored_total",
			Help:      "Total normalized listings written to the store.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rental_registry",
			Name:      "transform_errors_total",
			Help:      "Total features skipped during normalization.",
		}),
		SyncRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rental_registry",
			Name:      "sync_running",
			Help:      "1 while a sync cycle is in progress.",
		}),
		ListingCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rental_registry",
			Name:      "listing_count",
			Help:      "Listings in the store after the last sync.",
		}),
		LastSyncUnixtime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rental_registry",
			Name:      "last_sync_unixtime",
			Help:      "Unix time of the last successful sync.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rental_registry",
			Name:      "sync_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-store cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		FetchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rental_registry",
			Name:      "fetch_size",
			Help:      "Number of features fetched from the registry layer per sync.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		RosterRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental_registry",
			Name:      "roster_records_total",
			Help:      "Municipal roster records fetched by municipality.",
		}, []string{"municipality"}),
		RosterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental_registry",
			Name:      "roster_failures_total",
			Help:      "Municipal roster fetch failures by municipality.",
		}, []string{"municipality"}),
		RenewalCategories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rental_registry",
			Name:      "renewal_category_listings",
			Help:      "Listings per renewal urgency category after the last sync.",
		}, []string{"category"}),
	}
}
